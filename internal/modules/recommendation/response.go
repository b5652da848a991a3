package recommendation

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

const (
	previewRunes    = 200
	untitledLecture = "Untitled lecture"
)

type ContentView struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	PageNumber   *int      `json:"pageNumber,omitempty"`
	LectureTitle string    `json:"lectureTitle,omitempty"`
	Preview      string    `json:"preview"`
}

type Actions struct {
	View    string `json:"view"`
	Dismiss bool   `json:"dismiss"`
	Rate    bool   `json:"rate"`
}

type Response struct {
	ID        uuid.UUID   `json:"id"`
	Content   ContentView `json:"content"`
	Score     float64     `json:"score"`
	Rank      int         `json:"rank"`
	Reasoning string      `json:"reasoning"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"createdAt"`
	Actions   Actions     `json:"actions"`
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "..."
}

func viewURL(lectureID uuid.UUID, page *int) string {
	if page != nil {
		return fmt.Sprintf("/library/%s?page=%d", lectureID, *page)
	}
	return fmt.Sprintf("/library/%s", lectureID)
}

func FormatResponse(r *domain.Recommendation) Response {
	view := ContentView{
		ID:    r.RecommendedContentID,
		Title: untitledLecture,
		Type:  r.SourceType,
	}
	var lectureID uuid.UUID
	if c := r.RecommendedContent; c != nil {
		lectureID = c.LectureID
		view.PageNumber = c.PageNumber
		view.Preview = preview(c.Content)
		if title := c.LectureTitle(); title != "" {
			view.Title = title
			view.LectureTitle = title
		}
	}
	return Response{
		ID:        r.ID,
		Content:   view,
		Score:     r.Score,
		Rank:      r.Rank,
		Reasoning: r.Reasoning,
		Source:    r.SourceType,
		CreatedAt: r.CreatedAt,
		Actions: Actions{
			View:    viewURL(lectureID, view.PageNumber),
			Dismiss: true,
			Rate:    true,
		},
	}
}

func FormatResponses(rows []*domain.Recommendation) []Response {
	out := make([]Response, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, FormatResponse(r))
	}
	return out
}
