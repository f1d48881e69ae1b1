package telegram

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-recommender/pkg/utils"
)

const maxMessageLen = 4090

// SentimentShift describes a company whose aggregate sentiment moved enough
// to alert its followers.
type SentimentShift struct {
	CompanyName   string
	Previous      float64
	Current       float64
	PreviousLabel string
	CurrentLabel  string
	Followers     int
}

func sentimentIcon(label string) string {
	switch strings.ToLower(label) {
	case "positive", "very positive":
		return "😊"
	case "negative", "very negative":
		return "😟"
	default:
		return "😐"
	}
}

// FormatSentimentShift formats a single shift as a Markdown message.
func FormatSentimentShift(s SentimentShift) string {
	var builder strings.Builder

	direction := "📈"
	if s.Current < s.Previous {
		direction = "📉"
	}
	builder.WriteString(fmt.Sprintf("%s *%s* sentiment changed\n", direction, s.CompanyName))
	builder.WriteString(fmt.Sprintf("%s *Before:* %s (%.2f)\n", sentimentIcon(s.PreviousLabel), s.PreviousLabel, s.Previous))
	builder.WriteString(fmt.Sprintf("%s *Now:* %s (%.2f)\n", sentimentIcon(s.CurrentLabel), s.CurrentLabel, s.Current))
	builder.WriteString(fmt.Sprintf("👥 *Followers notified:* %d\n", s.Followers))
	return builder.String()
}

// FormatSentimentShifts packs several shifts into as few messages as fit the
// Telegram length limit.
func FormatSentimentShifts(shifts []SentimentShift) []string {
	if len(shifts) == 0 {
		return []string{"No sentiment changes."}
	}

	var messages []string
	var current strings.Builder
	part := 1

	startNewPart := func() {
		current.Reset()
		if part == 1 {
			current.WriteString("🔔 *Sentiment Alerts* 🔔\n\n")
		} else {
			current.WriteString(fmt.Sprintf("---*Sentiment Alerts Part %d*---\n\n", part))
		}
	}
	startNewPart()

	for _, s := range shifts {
		entry := FormatSentimentShift(s) + "\n"
		if current.Len()+len(entry) > maxMessageLen {
			messages = append(messages, current.String())
			part++
			startNewPart()
		}
		current.WriteString(entry)
	}
	messages = append(messages, current.String())
	return messages
}

// FormatErrorAlertMessage formats an operational failure for the ops chat.
func FormatErrorAlertMessage(at time.Time, errType string, errMsg string, data string) string {
	return fmt.Sprintf("📛 [ERROR ALERT]\n%s\n*Type:* %s\n*Error:* %s\n*Data:* `%s`\n",
		utils.PrettyDate(at), errType, errMsg, data)
}
