package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// FileRefPrefix marks stored image references that hold a Telegram file id.
const FileRefPrefix = "tg-file:"

// ErrResolverUnbound is returned before the bot is running.
var ErrResolverUnbound = errors.New("bot: image resolver not bound to a bot")

// FileSource looks up uploaded files; *tele.Bot implements it.
type FileSource interface {
	FileByID(fileID string) (tele.File, error)
}

// ImageResolver checks uploaded photos and turns them into stored references.
// References carry the file id, which stays valid for the bot, and never a
// download link, which embeds the token and expires.
type ImageResolver struct {
	mu  sync.RWMutex
	src FileSource
}

// NewImageResolver builds an unbound resolver.
func NewImageResolver() *ImageResolver {
	return &ImageResolver{}
}

// Bind attaches the running bot.
func (r *ImageResolver) Bind(src FileSource) {
	r.mu.Lock()
	r.src = src
	r.mu.Unlock()
}

// ResolveImage confirms Telegram still serves fileID and returns its reference.
func (r *ImageResolver) ResolveImage(ctx context.Context, fileID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	src := r.src
	r.mu.RUnlock()
	if src == nil {
		return "", ErrResolverUnbound
	}

	f, err := src.FileByID(fileID)
	if err != nil {
		return "", fmt.Errorf("get file %s: %w", fileID, err)
	}
	if f.FilePath == "" {
		return "", fmt.Errorf("get file %s: empty file path", fileID)
	}
	if f.FileID != "" {
		fileID = f.FileID
	}
	return FileRef(fileID), nil
}

// FileRef builds the stored reference for a file id.
func FileRef(fileID string) string { return FileRefPrefix + fileID }

