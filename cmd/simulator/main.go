package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Drives a day of garage work against the API: assigns vehicles into
// slots, starts them, and randomly pauses, blocks on parts or completes
// them, so the monitors and alert rules have something to chew on.

var workTypes = []string{"electrical", "mechanical", "body_work", "painter", "detailer"}

var priorities = []string{"high", "medium", "low"}

var modelsPool = []string{"Golf", "Corolla", "Civic", "Clio", "Focus", "Astra", "308", "Octavia"}

var mechanics = []string{"kostas", "maria", "stavros", "elena"}

var issues = []string{
	"engine warning light",
	"brakes grinding",
	"battery drains overnight",
	"respray rear bumper",
	"full detail before sale",
	"clutch slipping",
	"aircon blows warm",
}

type assignRequest struct {
	SlotID            string `json:"slot_id"`
	VehicleCode       string `json:"vehicle_code"`
	Model             string `json:"model"`
	CustomerName      string `json:"customer_name"`
	WorkType          string `json:"work_type"`
	Priority          string `json:"priority"`
	EstimatedDuration string `json:"estimated_duration"`
	Notes             string `json:"notes"`
}

type transitionRequest struct {
	JobID    string `json:"job_id"`
	Action   string `json:"action"`
	Mechanic string `json:"mechanic"`
	Reason   string `json:"reason"`
	By       string `json:"by"`
	Parts    *struct {
		PartID   string `json:"part_id"`
		Quantity int    `json:"quantity"`
		Supplier string `json:"supplier"`
		Urgency  string `json:"urgency"`
	} `json:"parts,omitempty"`
}

type jobResponse struct {
	ID          string `json:"id"`
	VehicleCode string `json:"vehicle_code"`
	Status      string `json:"status"`
	SlotID      string `json:"slot_id"`
}

func postJSON(url string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func randomPlate() string {
	letters := "ABCDEFGHJKLMNPRSTVWXYZ"
	return fmt.Sprintf("%c%c%c-%03d",
		letters[rand.Intn(len(letters))],
		letters[rand.Intn(len(letters))],
		letters[rand.Intn(len(letters))],
		100+rand.Intn(900))
}

func randomAssign(slot string) assignRequest {
	return assignRequest{
		SlotID:            slot,
		VehicleCode:       randomPlate(),
		Model:             modelsPool[rand.Intn(len(modelsPool))],
		CustomerName:      "sim customer",
		WorkType:          workTypes[rand.Intn(len(workTypes))],
		Priority:          priorities[rand.Intn(len(priorities))],
		EstimatedDuration: []string{"30m", "1h", "90m", "2h", "3h"}[rand.Intn(5)],
		Notes:             issues[rand.Intn(len(issues))],
	}
}

func assignVehicle(apiURL, slot string) (*jobResponse, error) {
	resp, err := postJSON(apiURL+"/board/assign", randomAssign(slot))
	if err != nil {
		return nil, fmt.Errorf("assign request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("assign failed with status: %d", resp.StatusCode)
	}
	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	return &job, nil
}

func transition(apiURL string, req transitionRequest) error {
	resp, err := postJSON(apiURL+"/jobs/transition", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transition %s failed with status: %d", req.Action, resp.StatusCode)
	}
	return nil
}

// nextAction picks what happens to an in-progress job on a tick.
func nextAction() string {
	r := rand.Float64()
	switch {
	case r < 0.15:
		return "pause"
	case r < 0.25:
		return "await_parts"
	case r < 0.45:
		return "complete"
	default:
		return ""
	}
}

func driveJob(apiURL string, job *jobResponse, interval time.Duration) {
	mechanic := mechanics[rand.Intn(len(mechanics))]
	if err := transition(apiURL, transitionRequest{JobID: job.ID, Action: "start", Mechanic: mechanic}); err != nil {
		log.WithError(err).WithField("vehicle", job.VehicleCode).Error("Failed to start job")
		return
	}
	log.WithFields(log.Fields{"vehicle": job.VehicleCode, "mechanic": mechanic}).Info("Job started")

	tick := time.NewTicker(interval)
	defer tick.Stop()
	blocked := ""
	for range tick.C {
		if blocked != "" {
			// resume whatever we were blocked on
			action := "resume"
			if blocked == "await_parts" {
				action = "parts_arrived"
			}
			if err := transition(apiURL, transitionRequest{JobID: job.ID, Action: action}); err != nil {
				log.WithError(err).WithField("vehicle", job.VehicleCode).Error("Failed to unblock job")
				return
			}
			log.WithFields(log.Fields{"vehicle": job.VehicleCode, "action": action}).Info("Job resumed")
			blocked = ""
			continue
		}

		switch act := nextAction(); act {
		case "complete":
			if err := transition(apiURL, transitionRequest{JobID: job.ID, Action: "complete"}); err != nil {
				log.WithError(err).WithField("vehicle", job.VehicleCode).Error("Failed to complete job")
			} else {
				log.WithField("vehicle", job.VehicleCode).Info("Job completed")
			}
			return
		case "pause":
			req := transitionRequest{JobID: job.ID, Action: "pause", Reason: "waiting on lift", By: mechanic}
			if err := transition(apiURL, req); err == nil {
				log.WithField("vehicle", job.VehicleCode).Info("Job paused")
				blocked = "pause"
			}
		case "await_parts":
			req := transitionRequest{JobID: job.ID, Action: "await_parts"}
			req.Parts = &struct {
				PartID   string `json:"part_id"`
				Quantity int    `json:"quantity"`
				Supplier string `json:"supplier"`
				Urgency  string `json:"urgency"`
			}{PartID: fmt.Sprintf("part-%d", rand.Intn(1000)), Quantity: 1 + rand.Intn(4), Supplier: "acme parts", Urgency: priorities[rand.Intn(len(priorities))]}
			if err := transition(apiURL, req); err == nil {
				log.WithField("vehicle", job.VehicleCode).Info("Job waiting for parts")
				blocked = "await_parts"
			}
		}
	}
}

func slotForIndex(i int) string {
	return fmt.Sprintf("%02d:00", 9+i%8)
}

func main() {
	jobCount := 6
	if val := os.Getenv("SIM_JOBS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			jobCount = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	interval := 5 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"jobs":     jobCount,
		"api_url":  apiURL,
		"interval": interval,
	}).Info("Starting workload simulation")

	jobs := make([]*jobResponse, 0, jobCount)
	for i := 0; i < jobCount; i++ {
		job, err := assignVehicle(apiURL, slotForIndex(i))
		if err != nil {
			log.WithError(err).Error("Failed to assign vehicle")
			continue
		}
		log.WithFields(log.Fields{"vehicle": job.VehicleCode, "slot": job.SlotID}).Info("Assigned vehicle")
		jobs = append(jobs, job)
	}

	if len(jobs) == 0 {
		log.Error("No jobs assigned. Ensure the API is reachable. Exiting.")
		return
	}

	for _, job := range jobs {
		go driveJob(apiURL, job, interval)
	}

	log.WithField("jobs", len(jobs)).Info("Workload simulation started")
	select {} // Block forever
}
