package recommendation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
)

func TestFeedbackRepo_AverageRatingsByContent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewFeedbackRepo(db, testutil.Logger(t))

	l := testutil.SeedLecture(t, ctx, tx, "History")
	liked := testutil.SeedContent(t, ctx, tx, l.ID, 0, "rome")
	disliked := testutil.SeedContent(t, ctx, tx, l.ID, 1, "carthage")
	unrated := testutil.SeedContent(t, ctx, tx, l.ID, 2, "sparta")

	userID := uuid.New()
	now := time.Now().UTC()
	r1 := testutil.SeedRecommendation(t, ctx, tx, userID, liked.ID, domain.RecommendationRated, now.Add(-72*time.Hour))
	r2 := testutil.SeedRecommendation(t, ctx, tx, userID, liked.ID, domain.RecommendationRated, now.Add(-48*time.Hour))
	r3 := testutil.SeedRecommendation(t, ctx, tx, userID, disliked.ID, domain.RecommendationRated, now.Add(-48*time.Hour))
	testutil.SeedRecommendation(t, ctx, tx, userID, unrated.ID, domain.RecommendationPending, now)

	testutil.SeedFeedback(t, ctx, tx, userID, r1.ID, 4, now.Add(-70*time.Hour))
	testutil.SeedFeedback(t, ctx, tx, userID, r2.ID, 5, now.Add(-47*time.Hour))
	testutil.SeedFeedback(t, ctx, tx, userID, r3.ID, 1, now.Add(-40*24*time.Hour))
	// Someone else's rating on the same recommendation is ignored.
	testutil.SeedFeedback(t, ctx, tx, uuid.New(), r1.ID, 1, now)

	ids := []uuid.UUID{liked.ID, disliked.ID, unrated.ID}
	all, err := repo.AverageRatingsByContent(dbc, userID, ids, nil)
	if err != nil {
		t.Fatalf("AverageRatingsByContent: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("AverageRatingsByContent: want 2 entries got=%d", len(all))
	}
	if agg := all[liked.ID]; math.Abs(agg.Mean-4.5) > 1e-9 || agg.Count != 2 {
		t.Fatalf("liked: want mean=4.5 count=2 got=%+v", agg)
	}
	if _, ok := all[unrated.ID]; ok {
		t.Fatalf("unrated content should be absent")
	}

	since := now.Add(-30 * 24 * time.Hour)
	windowed, err := repo.AverageRatingsByContent(dbc, userID, ids, &since)
	if err != nil {
		t.Fatalf("AverageRatingsByContent(window): %v", err)
	}
	if _, ok := windowed[disliked.ID]; ok {
		t.Fatalf("rating older than the window should be excluded")
	}

	if empty, err := repo.AverageRatingsByContent(dbc, userID, nil, nil); err != nil || len(empty) != 0 {
		t.Fatalf("AverageRatingsByContent(nil): err=%v len=%d", err, len(empty))
	}
}

func TestFeedbackRepo_Create(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewFeedbackRepo(db, testutil.Logger(t))

	row, err := repo.Create(dbc, &domain.RecommendationFeedback{UserID: uuid.New(), RecommendationID: uuid.New(), Rating: 3})
	if err != nil || row == nil || row.ID == uuid.Nil || row.CreatedAt.IsZero() {
		t.Fatalf("Create: row=%+v err=%v", row, err)
	}
}
