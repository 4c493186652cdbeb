package storage

import (
	"errors"
	"testing"

	"github.com/danesh-portal/danesh/storage/model"
)

func newCourse(title, slug string, status model.Status, tier model.SubscriptionTier) *model.Course {
	c := &model.Course{Slug: slug}
	c.Title = title
	c.Status = status
	c.RequiredTier = tier
	return c
}

func TestContentCRUD(t *testing.T) {
	courses := newTestStorage(t).Backends().Courses

	c := newCourse("آموزش آبیاری", "irrigation", model.StatusPublished, "")
	c.Protection.Watermark = true
	if err := courses.Create(c); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.ID == 0 {
		t.Fatal("Create did not assign an id")
	}
	if c.RequiredTier != model.TierFree {
		t.Errorf("expected default tier free, got %s", c.RequiredTier)
	}

	got, err := courses.Get(c.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != c.Title || !got.Protection.Watermark {
		t.Errorf("unexpected course: %+v", got)
	}

	upd := newCourse("آموزش آبیاری قطره‌ای", "drip-irrigation", model.StatusArchived, model.TierPremium)
	updated, err := courses.Update(c.ID, upd)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID != c.ID || updated.Slug != "drip-irrigation" || updated.Status != model.StatusArchived {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.CreatedAt.Equal(got.CreatedAt) {
		t.Error("Update changed created_at")
	}

	if err = courses.Delete(c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	var notFound model.NotFoundError
	if _, err = courses.Get(c.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
	if err = courses.Delete(c.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestContentValidationAndConflicts(t *testing.T) {
	courses := newTestStorage(t).Backends().Courses
	var invalid model.ValidationError
	if err := courses.Create(newCourse("", "x", model.StatusDraft, "")); !errors.As(err, &invalid) {
		t.Errorf("missing title: expected ValidationError, got %v", err)
	}
	if err := courses.Create(newCourse("t", "", model.StatusDraft, "")); !errors.As(err, &invalid) {
		t.Errorf("missing slug: expected ValidationError, got %v", err)
	}
	if err := courses.Create(newCourse("t", "x", model.StatusDraft, "gold")); !errors.As(err, &invalid) {
		t.Errorf("bad tier: expected ValidationError, got %v", err)
	}
	if err := courses.Create(newCourse("t", "dup", model.StatusDraft, "")); err != nil {
		t.Fatal(err)
	}
	var exists model.AlreadyExistsError
	if err := courses.Create(newCourse("t2", "dup", model.StatusDraft, "")); !errors.As(err, &exists) {
		t.Errorf("duplicate slug: expected AlreadyExistsError, got %v", err)
	}
}

func TestContentSlugReuseAfterDelete(t *testing.T) {
	courses := newTestStorage(t).Backends().Courses

	first := newCourse("آبیاری", "drip", model.StatusPublished, "")
	if err := courses.Create(first); err != nil {
		t.Fatal(err)
	}
	if err := courses.Delete(first.ID); err != nil {
		t.Fatal(err)
	}
	second := newCourse("آبیاری نو", "drip", model.StatusPublished, "")
	if err := courses.Create(second); err != nil {
		t.Fatalf("create with slug of deleted course failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new id for the recreated course")
	}

	other := newCourse("کود", "fertilizer", model.StatusDraft, "")
	if err := courses.Create(other); err != nil {
		t.Fatal(err)
	}
	if err := courses.Delete(second.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := courses.Update(other.ID, newCourse("کود", "drip", model.StatusDraft, "")); err != nil {
		t.Fatalf("update to slug of deleted course failed: %v", err)
	}

	// live slugs stay unique
	var exists model.AlreadyExistsError
	if err := courses.Create(newCourse("t", "drip", model.StatusDraft, "")); !errors.As(err, &exists) {
		t.Errorf("duplicate live slug: expected AlreadyExistsError, got %v", err)
	}
	items, total, err := courses.List(model.ContentQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != other.ID {
		t.Errorf("unexpected courses after reuse: total=%d %+v", total, items)
	}
}

func TestContentListFilters(t *testing.T) {
	courses := newTestStorage(t).Backends().Courses
	for _, c := range []*model.Course{
		newCourse("Go basics", "go-basics", model.StatusPublished, model.TierFree),
		newCourse("Go advanced", "go-advanced", model.StatusPublished, model.TierVIP),
		newCourse("Draft course", "draft", model.StatusDraft, model.TierFree),
	} {
		if err := courses.Create(c); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := courses.List(model.ContentQuery{Statuses: []model.Status{model.StatusPublished}})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 published courses, got %d (total %d)", len(items), total)
	}

	items, _, err = courses.List(
		model.ContentQuery{
			Statuses: []model.Status{model.StatusPublished},
			Tiers:    []model.SubscriptionTier{model.TierVIP},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Slug != "go-advanced" {
		t.Errorf("tier filter returned %+v", items)
	}

	items, total, err = courses.List(model.ContentQuery{Search: "Go", Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 1 {
		t.Errorf("expected 1 of 2 search results, got %d of %d", len(items), total)
	}
}

func TestContentListIgnoresTierForUngatedResources(t *testing.T) {
	slides := newTestStorage(t).Backends().Slides
	for i, title := range []string{"second", "first"} {
		s := &model.Slide{Position: 2 - i}
		s.Title = title
		s.Status = model.StatusPublished
		if err := slides.Create(s); err != nil {
			t.Fatal(err)
		}
	}
	items, _, err := slides.List(model.ContentQuery{Tiers: []model.SubscriptionTier{model.TierVIP}})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(items))
	}
	if items[0].Title != "first" {
		t.Errorf("slides not ordered by position: %s first", items[0].Title)
	}
}
