package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-recommender/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-recommender/internal/domain"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/dbctx"
)

func TestRecommendationRepo_CreateAndList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	l := testutil.SeedLecture(t, ctx, tx, "Statistics")
	c1 := testutil.SeedContent(t, ctx, tx, l.ID, 0, "mean")
	c2 := testutil.SeedContent(t, ctx, tx, l.ID, 1, "variance")

	userID := uuid.New()
	sessionID := uuid.New()
	rows, err := repo.CreateBatch(dbc, []*domain.Recommendation{
		{UserID: userID, RecommendedContentID: c1.ID, Score: 0.9, Rank: 1, Reasoning: "a", ContextType: "session", ContextID: sessionID, SourceType: domain.SourceTypeLecture},
		{UserID: userID, RecommendedContentID: c2.ID, Score: 0.7, Rank: 2, Reasoning: "b", ContextType: "session", ContextID: sessionID, SourceType: domain.SourceTypeLecture},
	})
	if err != nil || len(rows) != 2 {
		t.Fatalf("CreateBatch: err=%v len=%d", err, len(rows))
	}
	if rows[0].Status != domain.RecommendationPending {
		t.Fatalf("CreateBatch status: want=%s got=%s", domain.RecommendationPending, rows[0].Status)
	}

	listed, err := repo.ListByContext(dbc, userID, "session", sessionID)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListByContext: err=%v len=%d", err, len(listed))
	}
	if listed[0].Rank != 1 || listed[1].Rank != 2 {
		t.Fatalf("ListByContext order: want ranks 1,2 got=%d,%d", listed[0].Rank, listed[1].Rank)
	}
	if listed[0].RecommendedContent == nil || listed[0].RecommendedContent.LectureTitle() != "Statistics" {
		t.Fatalf("ListByContext: content or lecture not preloaded")
	}

	if got, err := repo.GetByID(dbc, userID, rows[0].ID); err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(dbc, uuid.New(), rows[0].ID); err != nil || got != nil {
		t.Fatalf("GetByID(other user): want nil got=%v err=%v", got, err)
	}
	if empty, err := repo.CreateBatch(dbc, nil); err != nil || len(empty) != 0 {
		t.Fatalf("CreateBatch(nil): err=%v len=%d", err, len(empty))
	}
}

func TestRecommendationRepo_RecentContentIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	l := testutil.SeedLecture(t, ctx, tx, "Chemistry")
	fresh := testutil.SeedContent(t, ctx, tx, l.ID, 0, "bonds")
	stale := testutil.SeedContent(t, ctx, tx, l.ID, 1, "orbitals")
	dismissed := testutil.SeedContent(t, ctx, tx, l.ID, 2, "ions")

	userID := uuid.New()
	now := time.Now().UTC()
	testutil.SeedRecommendation(t, ctx, tx, userID, fresh.ID, domain.RecommendationPending, now.Add(-1*time.Hour))
	testutil.SeedRecommendation(t, ctx, tx, userID, fresh.ID, domain.RecommendationViewed, now.Add(-2*time.Hour))
	testutil.SeedRecommendation(t, ctx, tx, userID, stale.ID, domain.RecommendationPending, now.Add(-48*time.Hour))
	testutil.SeedRecommendation(t, ctx, tx, userID, dismissed.ID, domain.RecommendationDismissed, now.Add(-1*time.Hour))
	testutil.SeedRecommendation(t, ctx, tx, uuid.New(), stale.ID, domain.RecommendationPending, now.Add(-1*time.Hour))

	ids, err := repo.RecentContentIDs(dbc, userID, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("RecentContentIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != fresh.ID {
		t.Fatalf("RecentContentIDs: want=[%s] got=%v", fresh.ID, ids)
	}
}

func TestRecommendationRepo_UpdateStatus(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	l := testutil.SeedLecture(t, ctx, tx, "Physics")
	c := testutil.SeedContent(t, ctx, tx, l.ID, 0, "momentum")
	userID := uuid.New()
	rec := testutil.SeedRecommendation(t, ctx, tx, userID, c.ID, domain.RecommendationPending, time.Now().UTC())

	at := time.Now().UTC()
	ok, err := repo.UpdateStatus(dbc, userID, rec.ID, []domain.RecommendationStatus{domain.RecommendationPending}, domain.RecommendationViewed, at)
	if err != nil || !ok {
		t.Fatalf("UpdateStatus(viewed): ok=%v err=%v", ok, err)
	}
	got, err := repo.GetByID(dbc, userID, rec.ID)
	if err != nil || got == nil || got.Status != domain.RecommendationViewed || got.ViewedAt == nil {
		t.Fatalf("GetByID after view: got=%+v err=%v", got, err)
	}

	// A second view is not a valid transition.
	ok, err = repo.UpdateStatus(dbc, userID, rec.ID, []domain.RecommendationStatus{domain.RecommendationPending}, domain.RecommendationViewed, at)
	if err != nil || ok {
		t.Fatalf("UpdateStatus(repeat): want ok=false got ok=%v err=%v", ok, err)
	}

	// Another user cannot touch it.
	ok, err = repo.UpdateStatus(dbc, uuid.New(), rec.ID, []domain.RecommendationStatus{domain.RecommendationViewed}, domain.RecommendationDismissed, at)
	if err != nil || ok {
		t.Fatalf("UpdateStatus(other user): want ok=false got ok=%v err=%v", ok, err)
	}
}

func TestRecommendationRepo_CreateBatchIsAllOrNothing(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewRecommendationRepo(db, testutil.Logger(t))

	userID := uuid.New()
	sessionID := uuid.New()
	t.Cleanup(func() {
		db.Where("user_id = ?", userID).Delete(&domain.Recommendation{})
	})

	// The last row collides with the first, so the failure lands in the second
	// insert batch after the first batch has already been written.
	rows := make([]*domain.Recommendation, 0, 201)
	for i := 0; i < 201; i++ {
		rows = append(rows, &domain.Recommendation{
			UserID:               userID,
			RecommendedContentID: uuid.New(),
			Score:                0.8,
			Rank:                 i + 1,
			Reasoning:            "batch",
			ContextType:          "session",
			ContextID:            sessionID,
			SourceType:           domain.SourceTypeLecture,
		})
	}
	rows[0].ID = uuid.New()
	rows[200].ID = rows[0].ID

	out, err := repo.CreateBatch(dbctx.From(ctx), rows)
	if err == nil {
		t.Fatalf("CreateBatch: want error on duplicate id got nil (%d rows)", len(out))
	}
	if out != nil {
		t.Fatalf("CreateBatch: want nil rows on error got=%d", len(out))
	}

	var n int64
	if err := db.Model(&domain.Recommendation{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rows visible after failed batch: want=0 got=%d", n)
	}
}
