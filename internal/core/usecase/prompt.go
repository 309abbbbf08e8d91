package usecase

import (
	"fmt"
	"strings"

	"github.com/daxmodi1/ShikshaMitra/internal/core/domain"
)

// Marker handed to the generation collaborator when retrieval produced
// nothing, so it can fall back to general guidance instead of an empty field.
const noContextMarker = "no curriculum context found"

// Per-turn cap applied when rendering history for prompting. It never
// truncates what the memory store keeps.
const summaryTurnMaxChars = 200

func buildSystemContext(contextBlock string, profile *domain.TeacherProfile, history []domain.Turn) string {
	var b strings.Builder
	b.WriteString("You are Shiksha Mitra, a mentor for government school teachers in India.\n\n")

	b.WriteString("CONTEXT FROM NCERT:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\n")

	b.WriteString("TEACHER PROFILE:\n")
	b.WriteString(renderTeacherProfile(profile))
	b.WriteString("\n\n")

	b.WriteString("CONVERSATION SO FAR:\n")
	b.WriteString(renderConversationSummary(history))
	b.WriteString("\n\n")

	b.WriteString(`INSTRUCTIONS:
- Answer in the same language as the teacher (Hindi/English).
- Keep it practical and under 150 words.
- Cite the NCERT context if used.
- Return ONLY a JSON object with keys:
  answer (string), topic (string), sentiment (string), language (string), actions (array of strings).
No markdown, no extra keys.`)

	return b.String()
}

func renderTeacherProfile(profile *domain.TeacherProfile) string {
	if profile == nil {
		return "(unknown)"
	}
	return fmt.Sprintf("grade=%s subject=%s location=%s", profile.Grade, profile.Subject, profile.Location)
}

func renderConversationSummary(history []domain.Turn) string {
	if len(history) == 0 {
		return "(new conversation)"
	}
	lines := make([]string, 0, len(history))
	for _, turn := range history {
		content := turn.Content
		if runes := []rune(content); len(runes) > summaryTurnMaxChars {
			content = string(runes[:summaryTurnMaxChars])
		}
		lines = append(lines, turn.Role+": "+content)
	}
	return strings.Join(lines, "\n")
}

func renderContextBlock(hits []domain.RetrievalHit) string {
	if len(hits) == 0 {
		return noContextMarker
	}
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Text)
	}
	return strings.Join(texts, "\n\n")
}
