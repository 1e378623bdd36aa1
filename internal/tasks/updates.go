package tasks

import (
	"fmt"

	"github.com/desertthunder/markx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	URL     string // URL the update belongs to
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Status Phase = iota
	BasicInfo
	Result
	Failure
	Queue
	Analyze
	Manifest
)

func (p Phase) String() string {
	switch p {
	case Status:
		return "status"
	case BasicInfo:
		return "basic_info"
	case Result:
		return "result"
	case Failure:
		return "error"
	case Queue:
		return "queue"
	case Analyze:
		return "analyze"
	case Manifest:
		return "manifest"
	default:
		return ""
	}
}

func statusUpdate(url, msg string) ProgressUpdate {
	return ProgressUpdate{Phase: Status, URL: url, Message: msg}
}

func basicInfoUpdate(url string, info *models.BasicInfo) ProgressUpdate {
	msg := "Fetched website info"
	if info != nil && info.Name != "" {
		msg = fmt.Sprintf("Fetched website info: %s", info.Name)
	}
	return ProgressUpdate{Phase: BasicInfo, URL: url, Message: msg, Data: info}
}

func resultUpdate(url string, result *models.WebsiteAnalysis) ProgressUpdate {
	msg := "Analysis complete"
	if result != nil && result.SpaceName != "" {
		msg = fmt.Sprintf("Analysis complete: suggested space %s", result.SpaceName)
	}
	return ProgressUpdate{Phase: Result, URL: url, Message: msg, Data: result}
}

func failureUpdate(url, msg string) ProgressUpdate {
	return ProgressUpdate{Phase: Failure, URL: url, Message: msg}
}

func queuedUpdate(step, total int, url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queue,
		Step:    step,
		Total:   total,
		URL:     url,
		Message: fmt.Sprintf("[%d/%d] Queued: %s", step, total, url),
	}
}

func analyzeCompletedUpdate(step, total int, res URLResult) ProgressUpdate {
	detail := ""
	if res.Analysis != nil && res.Analysis.SpaceName != "" {
		detail = " → " + res.Analysis.SpaceName
	}
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    step,
		Total:   total,
		URL:     res.URL,
		Message: fmt.Sprintf("[%d/%d] ✓ %s%s", step, total, res.URL, detail),
		Data:    res,
	}
}

func analyzeFailedUpdate(step, total int, res URLResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Analyze,
		Step:    step,
		Total:   total,
		URL:     res.URL,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.URL, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: Manifest, Step: 1, Total: 1, Message: fmt.Sprintf("Writing manifest: %s", path)}
}
