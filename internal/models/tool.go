package models

// Tool is a physical piece of garage equipment. Tools are not owned by
// jobs; a ToolAssignment links the two.
type Tool struct {
	ID       string `json:"id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Category string `json:"category" bson:"category"` // "lift", "diagnostic", "paint_booth", "hand_tool"
	Location string `json:"location" bson:"location"`
	Active   bool   `json:"active" bson:"active"`
}

// ToolAssignment attaches a tool to a job with per-job semantics.
type ToolAssignment struct {
	ToolID       string `json:"tool_id" bson:"tool_id"`
	Required     bool   `json:"required" bson:"required"`
	UsageSession string `json:"usage_session,omitempty" bson:"usage_session,omitempty"`
}
