package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-recommender/internal/domain"
)

func SeedLecture(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *domain.Lecture {
	tb.Helper()
	l := &domain.Lecture{ID: uuid.New(), UserID: uuid.New(), Title: title}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lecture: %v", err)
	}
	return l
}

func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, lectureID uuid.UUID, index int, text string) *domain.ContentItem {
	tb.Helper()
	page := index + 1
	c := &domain.ContentItem{
		ID:         uuid.New(),
		LectureID:  lectureID,
		ChunkIndex: index,
		Content:    text,
		PageNumber: &page,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return c
}

func SeedObjective(tb testing.TB, ctx context.Context, tx *gorm.DB, lectureID uuid.UUID, text string) *domain.LearningObjective {
	tb.Helper()
	o := &domain.LearningObjective{ID: uuid.New(), LectureID: lectureID, Objective: text}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed objective: %v", err)
	}
	return o
}

func SeedRelationship(tb testing.TB, ctx context.Context, tx *gorm.DB, from, to uuid.UUID, relType string, strength float64) *domain.ObjectiveRelationship {
	tb.Helper()
	r := &domain.ObjectiveRelationship{
		ID:               uuid.New(),
		FromObjectiveID:  from,
		ToObjectiveID:    to,
		RelationshipType: relType,
		Strength:         strength,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed relationship: %v", err)
	}
	return r
}

func SeedRecommendation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID, status domain.RecommendationStatus, createdAt time.Time) *domain.Recommendation {
	tb.Helper()
	rec := &domain.Recommendation{
		ID:                   uuid.New(),
		UserID:               userID,
		RecommendedContentID: contentID,
		Score:                0.7,
		Rank:                 1,
		Reasoning:            "seed",
		Status:               status,
		ContextType:          "session",
		ContextID:            uuid.New(),
		SourceType:           domain.SourceTypeLecture,
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
	if err := tx.WithContext(ctx).Create(rec).Error; err != nil {
		tb.Fatalf("seed recommendation: %v", err)
	}
	return rec
}

func SeedFeedback(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, recommendationID uuid.UUID, rating int, createdAt time.Time) *domain.RecommendationFeedback {
	tb.Helper()
	fb := &domain.RecommendationFeedback{
		ID:               uuid.New(),
		UserID:           userID,
		RecommendationID: recommendationID,
		Rating:           rating,
		CreatedAt:        createdAt,
	}
	if err := tx.WithContext(ctx).Create(fb).Error; err != nil {
		tb.Fatalf("seed feedback: %v", err)
	}
	return fb
}
