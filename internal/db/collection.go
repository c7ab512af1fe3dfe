package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/garage-workboard/internal/models"
)

// BoardStore persists the slot board keyed by date and is read back on
// process start.
type BoardStore interface {
	SaveBoard(ctx context.Context, snap models.BoardSnapshot) error
	LoadBoard(ctx context.Context, date string) (*models.BoardSnapshot, error)
}

// ToolCollection defines the interface for the tool catalogue.
type ToolCollection interface {
	InsertTool(ctx context.Context, tool models.Tool) error
	FindTools(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (ToolCursor, error)
	FindToolByID(ctx context.Context, id string) (*models.Tool, error)
}

// ToolCursor defines the interface for tool cursor operations.
type ToolCursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}

// WorkflowEventCollection stores the audit trail of job transitions.
type WorkflowEventCollection interface {
	InsertEvent(ctx context.Context, ev models.WorkflowEvent) error
	FindEvents(ctx context.Context, vehicleCode string) ([]models.WorkflowEvent, error)
}
