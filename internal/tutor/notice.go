package tutor

import (
	"fmt"
	"strings"

	"github.com/ai9campus/smarttutor/internal/completion"
)

// Level is how prominently a notice should be shown.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message for the learner that is not part of the conversation.
type Notice struct {
	Level       Level    `json:"level"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Detail      string   `json:"detail,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Markdown renders the notice the way the chat surfaces display it.
func (n Notice) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", n.Title)
	if n.Detail != "" {
		fmt.Fprintf(&b, " %s", n.Detail)
	}
	if len(n.Suggestions) > 0 {
		b.WriteString("\n\n**Possible solutions:**")
		for _, s := range n.Suggestions {
			fmt.Fprintf(&b, "\n- %s", s)
		}
	}
	return b.String()
}

// FailureNotice describes a turn that failed while talking to the model.
func FailureNotice(err error) Notice {
	kind := "unknown"
	if ce := completion.Classify(err); ce != nil {
		kind = ce.Kind.String()
	}
	return Notice{
		Level:  LevelError,
		Kind:   kind,
		Title:  "An error occurred:",
		Detail: errorDetail(err),
		Suggestions: []string{
			"Check your internet connection",
			"Verify your API key is valid",
			"Try asking your question in a different way",
			"If the issue persists, please report it using the feedback option",
		},
	}
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// EmptyNotice is shown when the model finished without saying anything.
func EmptyNotice() Notice {
	return Notice{
		Level: LevelWarning,
		Kind:  "empty_response",
		Title: "The model returned an empty response.",
		Suggestions: []string{
			"Please try rephrasing your question",
		},
	}
}

// ValidationNotice explains why input was not sent.
func ValidationNotice(reason string) Notice {
	return Notice{
		Level:  LevelInfo,
		Kind:   "validation",
		Title:  "Please type a question first.",
		Detail: reason,
	}
}

// BusyNotice is shown when a question arrives while another is being answered.
func BusyNotice() Notice {
	return Notice{
		Level:  LevelWarning,
		Kind:   "busy",
		Title:  "Still answering your previous question.",
		Detail: "Wait for the current answer to finish, then ask again.",
	}
}

// StartupNotice explains a missing configuration value before the service
// refuses to start.
func StartupNotice(key, hint string) Notice {
	return Notice{
		Level:  LevelError,
		Kind:   "startup_config",
		Title:  "API Key Not Found!",
		Detail: fmt.Sprintf("%s is not set.", key),
		Suggestions: []string{
			hint,
		},
	}
}
