package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"toolkithub/internal/models"
)

var errStoreDown = errors.New("store unavailable")

func duplicateKey() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
}

// memStore backs every fake repository with plain maps.
type memStore struct {
	mu         sync.Mutex
	tools      map[primitive.ObjectID]models.Tool
	categories map[primitive.ObjectID]models.Category
	ratings    map[primitive.ObjectID]models.Rating
	comments   map[primitive.ObjectID]models.Comment
	bookmarks  map[primitive.ObjectID]models.Bookmark
	users      map[primitive.ObjectID]models.User
	adminLogs  []models.AdminLog

	failAggregate bool
	failTouch     bool
	failAdminLog  bool
	deleteBatches []int
}

func newMemStore() *memStore {
	return &memStore{
		tools:      map[primitive.ObjectID]models.Tool{},
		categories: map[primitive.ObjectID]models.Category{},
		ratings:    map[primitive.ObjectID]models.Rating{},
		comments:   map[primitive.ObjectID]models.Comment{},
		bookmarks:  map[primitive.ObjectID]models.Bookmark{},
		users:      map[primitive.ObjectID]models.User{},
	}
}

// tools

type fakeToolRepo struct{ s *memStore }

func (r fakeToolRepo) Create(_ context.Context, tool *models.Tool) (*models.Tool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if tool.ID.IsZero() {
		tool.ID = primitive.NewObjectID()
	}
	r.s.tools[tool.ID] = *tool
	return tool, nil
}

func (r fakeToolRepo) InsertMany(_ context.Context, tools []models.Tool) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range tools {
		if tools[i].ID.IsZero() {
			tools[i].ID = primitive.NewObjectID()
		}
		r.s.tools[tools[i].ID] = tools[i]
	}
	return len(tools), nil
}

func (r fakeToolRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Tool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tools[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &t, nil
}

func (r fakeToolRepo) FindAll(_ context.Context) ([]models.Tool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Tool, 0, len(r.s.tools))
	for _, t := range r.s.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r fakeToolRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Tool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Tool{}
	for _, id := range ids {
		if t, ok := r.s.tools[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r fakeToolRepo) SearchByName(ctx context.Context, term string, limit int64) ([]models.Tool, error) {
	all, _ := r.FindAll(ctx)
	out := []models.Tool{}
	for _, t := range all {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(term)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r fakeToolRepo) Update(_ context.Context, tool *models.Tool) (*mongo.UpdateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.tools[tool.ID]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	cur.Name, cur.Category, cur.URL = tool.Name, tool.Category, tool.URL
	cur.Description, cur.Memo, cur.Plan, cur.UpdatedAt = tool.Description, tool.Memo, tool.Plan, tool.UpdatedAt
	r.s.tools[tool.ID] = cur
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r fakeToolRepo) UpdateAggregate(_ context.Context, id primitive.ObjectID, average float64, count int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAggregate {
		return errStoreDown
	}
	t, ok := r.s.tools[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	t.AverageRating, t.RatingCount, t.UpdatedAt = average, count, at
	r.s.tools[id] = t
	return nil
}

func (r fakeToolRepo) Touch(_ context.Context, id primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTouch {
		return errStoreDown
	}
	if t, ok := r.s.tools[id]; ok {
		t.UpdatedAt = at
		r.s.tools[id] = t
	}
	return nil
}

func (r fakeToolRepo) RenameCategory(_ context.Context, from, to string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tools {
		if t.Category == from {
			t.Category, t.UpdatedAt = to, at
			r.s.tools[id] = t
			n++
		}
	}
	return n, nil
}

func (r fakeToolRepo) CountByCategory(_ context.Context, category string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tools {
		if t.Category == category {
			n++
		}
	}
	return n, nil
}

func (r fakeToolRepo) Delete(_ context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tools[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(r.s.tools, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (r fakeToolRepo) DeleteMany(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deleteBatches = append(r.s.deleteBatches, len(ids))
	var n int64
	for _, id := range ids {
		if _, ok := r.s.tools[id]; ok {
			delete(r.s.tools, id)
			n++
		}
	}
	return n, nil
}

func (r fakeToolRepo) ListIDs(_ context.Context) ([]primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(r.s.tools))
	for id := range r.s.tools {
		ids = append(ids, id)
	}
	return ids, nil
}

// categories

type fakeCategoryRepo struct{ s *memStore }

func (r fakeCategoryRepo) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if existing.Name == c.Name {
			return nil, duplicateKey()
		}
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.s.categories[c.ID] = *c
	return c, nil
}

func (r fakeCategoryRepo) FindAll(_ context.Context) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Category{}
	for _, c := range r.s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeCategoryRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &c, nil
}

func (r fakeCategoryRepo) FindByName(_ context.Context, name string) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r fakeCategoryRepo) Rename(_ context.Context, id primitive.ObjectID, name string) (*mongo.UpdateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	c.Name = name
	r.s.categories[id] = c
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r fakeCategoryRepo) Delete(_ context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(r.s.categories, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (r fakeCategoryRepo) Upsert(ctx context.Context, name string, at time.Time) (bool, error) {
	if _, err := r.FindByName(ctx, name); err == nil {
		return false, nil
	}
	_, err := r.Create(ctx, &models.Category{Name: name, CreatedAt: at})
	return err == nil, err
}

// ratings

type fakeRatingRepo struct{ s *memStore }

func (r fakeRatingRepo) Create(_ context.Context, rating *models.Rating) (*models.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.ratings {
		if existing.ToolID == rating.ToolID && existing.UserID == rating.UserID {
			return nil, duplicateKey()
		}
	}
	if rating.ID.IsZero() {
		rating.ID = primitive.NewObjectID()
	}
	r.s.ratings[rating.ID] = *rating
	return rating, nil
}

func (r fakeRatingRepo) FindByTool(_ context.Context, toolID primitive.ObjectID) ([]models.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Rating{}
	for _, rt := range r.s.ratings {
		if rt.ToolID == toolID {
			out = append(out, rt)
		}
	}
	return out, nil
}

func (r fakeRatingRepo) FindByToolAndUser(_ context.Context, toolID, userID primitive.ObjectID) (*models.Rating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rt := range r.s.ratings {
		if rt.ToolID == toolID && rt.UserID == userID {
			return &rt, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r fakeRatingRepo) UpdateValue(_ context.Context, id primitive.ObjectID, value float64, at time.Time) (*mongo.UpdateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.ratings[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	rt.Rating, rt.UpdatedAt = value, at
	r.s.ratings[id] = rt
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r fakeRatingRepo) Delete(_ context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.ratings[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(r.s.ratings, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (r fakeRatingRepo) DeleteByTool(_ context.Context, toolID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, rt := range r.s.ratings {
		if rt.ToolID == toolID {
			delete(r.s.ratings, id)
			n++
		}
	}
	return n, nil
}

// comments

type fakeCommentRepo struct{ s *memStore }

func (r fakeCommentRepo) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	r.s.comments[c.ID] = *c
	return c, nil
}

func (r fakeCommentRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &c, nil
}

func (r fakeCommentRepo) FindByTool(_ context.Context, toolID primitive.ObjectID) ([]models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Comment{}
	for _, c := range r.s.comments {
		if c.ToolID == toolID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (r fakeCommentRepo) UpdateContent(_ context.Context, id primitive.ObjectID, content string, at time.Time) (*mongo.UpdateResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return &mongo.UpdateResult{}, nil
	}
	c.Content, c.UpdatedAt = content, at
	r.s.comments[id] = c
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r fakeCommentRepo) Delete(_ context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(r.s.comments, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (r fakeCommentRepo) DeleteByParent(_ context.Context, parentID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			delete(r.s.comments, id)
			n++
		}
	}
	return n, nil
}

func (r fakeCommentRepo) DeleteByTool(_ context.Context, toolID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.comments {
		if c.ToolID == toolID {
			delete(r.s.comments, id)
			n++
		}
	}
	return n, nil
}

// bookmarks

type fakeBookmarkRepo struct{ s *memStore }

func (r fakeBookmarkRepo) Create(_ context.Context, bm *models.Bookmark) (*models.Bookmark, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bookmarks {
		if existing.UserID == bm.UserID && existing.ToolID == bm.ToolID {
			return nil, duplicateKey()
		}
	}
	if bm.ID.IsZero() {
		bm.ID = primitive.NewObjectID()
	}
	r.s.bookmarks[bm.ID] = *bm
	return bm, nil
}

func (r fakeBookmarkRepo) FindByUserAndTool(_ context.Context, userID, toolID primitive.ObjectID) (*models.Bookmark, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, bm := range r.s.bookmarks {
		if bm.UserID == userID && bm.ToolID == toolID {
			return &bm, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r fakeBookmarkRepo) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Bookmark, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Bookmark{}
	for _, bm := range r.s.bookmarks {
		if bm.UserID == userID {
			out = append(out, bm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeBookmarkRepo) Delete(_ context.Context, id primitive.ObjectID) (*mongo.DeleteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookmarks[id]; !ok {
		return &mongo.DeleteResult{}, nil
	}
	delete(r.s.bookmarks, id)
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (r fakeBookmarkRepo) DeleteByTool(_ context.Context, toolID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, bm := range r.s.bookmarks {
		if bm.ToolID == toolID {
			delete(r.s.bookmarks, id)
			n++
		}
	}
	return n, nil
}

// users

type fakeUserRepo struct{ s *memStore }

func (r fakeUserRepo) UpsertFromProvider(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	at := time.Now().UTC()
	for id, existing := range r.s.users {
		if existing.Provider == u.Provider && existing.ProviderUserID == u.ProviderUserID {
			existing.Name, existing.Email, existing.PhotoURL, existing.UpdatedAt = u.Name, u.Email, u.PhotoURL, at.Add(time.Millisecond)
			r.s.users[id] = existing
			return &existing, nil
		}
	}
	stored := *u
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt, stored.UpdatedAt = at, at
	r.s.users[stored.ID] = stored
	return &stored, nil
}

func (r fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

// admin logs

type fakeAdminLogRepo struct{ s *memStore }

func (r fakeAdminLogRepo) Create(_ context.Context, entry *models.AdminLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAdminLog {
		return errStoreDown
	}
	r.s.adminLogs = append(r.s.adminLogs, *entry)
	return nil
}

// countingCache is an in-memory catalog cache that records invalidations.
type countingCache struct {
	mu            sync.Mutex
	snapshot      []models.Tool
	has           bool
	generation    int64
	invalidations int
}

func (c *countingCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *countingCache) Get(context.Context) ([]models.Tool, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.has, nil
}

func (c *countingCache) Set(_ context.Context, generation int64, tools []models.Tool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	c.snapshot, c.has = tools, true
	return nil
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot, c.has = nil, false
	c.generation++
	c.invalidations++
	return nil
}

// env wires every service to one memStore.
type env struct {
	store     *memStore
	cache     *countingCache
	tools     ToolService
	cats      CategoryService
	ratings   RatingService
	comments  CommentService
	bookmarks BookmarkService
	transfer  TransferService
	users     UserService
	auth      AuthService
}

func newEnv() *env {
	s := newMemStore()
	c := &countingCache{}
	toolRepo := fakeToolRepo{s}
	categoryRepo := fakeCategoryRepo{s}
	ratingRepo := fakeRatingRepo{s}
	commentRepo := fakeCommentRepo{s}
	bookmarkRepo := fakeBookmarkRepo{s}
	userRepo := fakeUserRepo{s}
	return &env{
		store:     s,
		cache:     c,
		tools:     NewToolService(toolRepo, categoryRepo, ratingRepo, commentRepo, bookmarkRepo, c),
		cats:      NewCategoryService(categoryRepo, toolRepo, c),
		ratings:   NewRatingService(ratingRepo, toolRepo, c),
		comments:  NewCommentService(commentRepo, toolRepo, userRepo, c),
		bookmarks: NewBookmarkService(bookmarkRepo, toolRepo),
		transfer:  NewTransferService(toolRepo, categoryRepo, c, nil),
		users:     NewUserService(userRepo),
		auth:      NewAuthService(userRepo, "test-secret"),
	}
}

func (e *env) seedTool(name, category string, plan models.Plan, owner primitive.ObjectID) models.Tool {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	t := models.Tool{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Category:    category,
		URL:         "https://" + strings.ToLower(name) + ".example",
		Description: name + " description",
		Plan:        plan,
		CreatedBy:   owner,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	e.store.tools[t.ID] = t
	return t
}

func (e *env) seedUser(name string) models.User {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	u := models.User{ID: primitive.NewObjectID(), Provider: "github", ProviderUserID: name, Name: name, PhotoURL: "https://img/" + name}
	e.store.users[u.ID] = u
	return u
}

func (e *env) seedCategory(name string) models.Category {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	c := models.Category{ID: primitive.NewObjectID(), Name: name}
	e.store.categories[c.ID] = c
	return c
}
