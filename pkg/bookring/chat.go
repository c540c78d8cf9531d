package bookring

import (
	"context"
	"fmt"
	"time"

	"github.com/bookring/bookring/pkg/models"
)

// bootstrapChat creates or refreshes the chat thread between the acting
// user and peer. First contact creates the thread with an empty message
// list and appends one chat-reference to each participant's index;
// later triggers only merge the banner and book snapshot, leaving
// messages and indexes alone.
func (a *App) bootstrapChat(ctx context.Context, actor *models.User, peerID models.UserID, book *models.Book, banner string) error {
	pair := models.CombinedChatID(actor.ID, peerID)
	snapshot := models.SnapshotOf(book)

	thread, err := a.store.GetChatThread(ctx, pair)
	if err != nil {
		return fmt.Errorf("reading chat thread: %w", err)
	}

	if thread != nil {
		if err := a.store.MergeChatThread(ctx, pair, banner, snapshot); err != nil {
			return fmt.Errorf("merging chat thread: %w", err)
		}
		return nil
	}

	peer, err := a.store.GetUser(ctx, peerID)
	if err != nil {
		return fmt.Errorf("resolving chat peer: %w", err)
	}

	if err := a.store.CreateChatThread(ctx, &models.ChatThread{
		ID:       pair,
		Messages: models.ChatMessageList{},
		Banner:   banner,
		Book:     snapshot,
	}); err != nil {
		return fmt.Errorf("creating chat thread: %w", err)
	}

	now := time.Now()
	if err := a.store.AppendChatRef(ctx, actor.ID, models.ChatRef{
		ChatID:          pair,
		UserID:          actor.ID,
		PeerID:          peer.ID,
		PeerDisplayName: peer.DisplayName,
		PeerPhotoURL:    peer.PhotoURL,
		Date:            now,
	}); err != nil {
		return fmt.Errorf("appending chat ref for actor: %w", err)
	}
	if err := a.store.AppendChatRef(ctx, peer.ID, models.ChatRef{
		ChatID:          pair,
		UserID:          peer.ID,
		PeerID:          actor.ID,
		PeerDisplayName: actor.DisplayName,
		PeerPhotoURL:    actor.PhotoURL,
		Date:            now,
	}); err != nil {
		return fmt.Errorf("appending chat ref for peer: %w", err)
	}

	return nil
}
