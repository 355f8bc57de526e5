package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"toolkithub/internal/cache"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/validation"
)

type CommentService interface {
	GetThreads(ctx context.Context, toolID primitive.ObjectID) ([]models.CommentThread, error)
	AddComment(ctx context.Context, userID, toolID primitive.ObjectID, reqBody models.AddCommentRequestBody) (*models.Comment, error)
	UpdateComment(ctx context.Context, actor Actor, commentID primitive.ObjectID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor Actor, commentID primitive.ObjectID) error
}

type commentServiceImpl struct {
	catalogReader
	commentRepo repositories.CommentRepository
	userRepo    repositories.UserRepository
}

func NewCommentService(
	commentRepo repositories.CommentRepository,
	toolRepo repositories.ToolRepository,
	userRepo repositories.UserRepository,
	catalogCache cache.CatalogCache,
) CommentService {
	return &commentServiceImpl{
		catalogReader: catalogReader{toolRepo: toolRepo, cache: catalogCache},
		commentRepo:   commentRepo,
		userRepo:      userRepo,
	}
}

// ValidateCommentContent requires 1 to 1000 characters of non-blank text.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return validation.Errorf("comment must not be empty")
	}
	if utf8.RuneCountInString(content) > models.MaxCommentLength {
		return validation.Errorf("comment must not exceed %d characters", models.MaxCommentLength)
	}
	return nil
}

// Threads partitions a flat comment list into top-level comments with their
// direct replies. Replies whose parent is missing are dropped. Input order is
// kept within each level.
func Threads(comments []models.Comment) []models.CommentThread {
	threads := []models.CommentThread{}
	index := make(map[primitive.ObjectID]int)
	for _, c := range comments {
		if c.IsTopLevel() {
			index[c.ID] = len(threads)
			threads = append(threads, models.CommentThread{Comment: c, Replies: []models.Comment{}})
		}
	}
	for _, c := range comments {
		if c.IsTopLevel() {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}

func (s *commentServiceImpl) GetThreads(ctx context.Context, toolID primitive.ObjectID) ([]models.CommentThread, error) {
	if _, err := s.toolRepo.FindByID(ctx, toolID); err != nil {
		if isNoDocuments(err) {
			return nil, ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tool: %w", err)
	}
	comments, err := s.commentRepo.FindByTool(ctx, toolID)
	if err != nil {
		log.Error().Err(err).Str("toolID", toolID.Hex()).Msg("Failed to retrieve comments")
		return nil, fmt.Errorf("failed to retrieve comments: %w", err)
	}
	return Threads(comments), nil
}

func (s *commentServiceImpl) AddComment(ctx context.Context, userID, toolID primitive.ObjectID, reqBody models.AddCommentRequestBody) (*models.Comment, error) {
	log.Debug().Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Attempting to add comment")

	if err := ValidateCommentContent(reqBody.Content); err != nil {
		log.Warn().Err(err).Str("userID", userID.Hex()).Msg("Rejected comment")
		return nil, err
	}
	if _, err := s.toolRepo.FindByID(ctx, toolID); err != nil {
		if isNoDocuments(err) {
			return nil, ErrToolNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tool: %w", err)
	}

	var parentID *primitive.ObjectID
	if reqBody.ParentID != nil && *reqBody.ParentID != "" {
		id, err := primitive.ObjectIDFromHex(*reqBody.ParentID)
		if err != nil {
			return nil, validation.Errorf("invalid parent comment id")
		}
		parent, err := s.commentRepo.FindByID(ctx, id)
		if err != nil {
			if isNoDocuments(err) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("failed to retrieve parent comment: %w", err)
		}
		if parent.ToolID != toolID {
			return nil, validation.Errorf("parent comment belongs to another tool")
		}
		if !parent.IsTopLevel() {
			return nil, validation.Errorf("replies can only be made to top-level comments")
		}
		parentID = &id
	}

	author, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve author: %w", err)
	}

	at := now()
	comment, err := s.commentRepo.Create(ctx, &models.Comment{
		ToolID:       toolID,
		UserID:       userID,
		UserName:     author.Name,
		UserPhotoURL: author.PhotoURL,
		Content:      reqBody.Content,
		ParentID:     parentID,
		CreatedAt:    at,
		UpdatedAt:    at,
	})
	if err != nil {
		log.Error().Err(err).Str("userID", userID.Hex()).Str("toolID", toolID.Hex()).Msg("Failed to create comment")
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	if parentID == nil {
		metrics.CommentCreatedTotal.WithLabelValues("top_level").Inc()
	} else {
		metrics.CommentCreatedTotal.WithLabelValues("reply").Inc()
	}
	s.touchTool(ctx, toolID)

	log.Info().Str("userID", userID.Hex()).Str("commentID", comment.ID.Hex()).Msg("Comment created")
	return comment, nil
}

// UpdateComment changes content and updatedAt only. Only the author may edit.
func (s *commentServiceImpl) UpdateComment(ctx context.Context, actor Actor, commentID primitive.ObjectID, content string) (*models.Comment, error) {
	if err := ValidateCommentContent(content); err != nil {
		return nil, err
	}
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.UserID {
		log.Warn().Str("userID", actor.UserID.Hex()).Str("commentID", commentID.Hex()).Msg("Comment edit forbidden")
		return nil, ErrNotOwner
	}

	at := now()
	result, err := s.commentRepo.UpdateContent(ctx, commentID, content, at)
	if err != nil {
		log.Error().Err(err).Str("commentID", commentID.Hex()).Msg("Failed to update comment")
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrCommentNotFound
	}
	comment.Content = content
	comment.UpdatedAt = at
	s.touchTool(ctx, comment.ToolID)

	log.Info().Str("userID", actor.UserID.Hex()).Str("commentID", commentID.Hex()).Msg("Comment updated")
	return comment, nil
}

// DeleteComment removes a comment. A top-level comment takes its replies
// with it; the replies go first.
func (s *commentServiceImpl) DeleteComment(ctx context.Context, actor Actor, commentID primitive.ObjectID) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !actor.Owns(comment.UserID) {
		log.Warn().Str("userID", actor.UserID.Hex()).Str("commentID", commentID.Hex()).Msg("Comment delete forbidden")
		return ErrNotOwner
	}

	if comment.IsTopLevel() {
		replies, err := s.commentRepo.DeleteByParent(ctx, commentID)
		if err != nil {
			log.Error().Err(err).Str("commentID", commentID.Hex()).Msg("Failed to delete replies")
			return fmt.Errorf("failed to delete replies: %w", err)
		}
		log.Debug().Str("commentID", commentID.Hex()).Int64("replies", replies).Msg("Replies deleted")
	}

	result, err := s.commentRepo.Delete(ctx, commentID)
	if err != nil {
		log.Error().Err(err).Str("commentID", commentID.Hex()).Msg("Failed to delete comment")
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCommentNotFound
	}
	s.touchTool(ctx, comment.ToolID)

	log.Info().Str("userID", actor.UserID.Hex()).Str("commentID", commentID.Hex()).Msg("Comment deleted")
	return nil
}

func (s *commentServiceImpl) getComment(ctx context.Context, commentID primitive.ObjectID) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if isNoDocuments(err) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to retrieve comment: %w", err)
	}
	return comment, nil
}

// touchTool bumps the tool's updatedAt. Failures do not affect the comment write.
func (s *commentServiceImpl) touchTool(ctx context.Context, toolID primitive.ObjectID) {
	if err := s.toolRepo.Touch(ctx, toolID, now()); err != nil {
		log.Error().Err(err).Str("toolID", toolID.Hex()).Msg("Failed to touch tool after comment write")
		return
	}
	s.invalidate(ctx)
}
