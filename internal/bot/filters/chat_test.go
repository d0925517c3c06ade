package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/features/members"
)

type lookupFunc func(ctx context.Context, userID int64) (*members.Member, error)

func (f lookupFunc) GetByUserID(ctx context.Context, userID int64) (*members.Member, error) {
	return f(ctx, userID)
}

func privateMessage(userID int64) *telego.Message {
	return &telego.Message{
		Chat: telego.Chat{ID: userID, Type: telego.ChatTypePrivate},
		From: &telego.User{ID: userID, FirstName: "Аня"},
		Text: "!очки",
	}
}

func TestCheckAccess(t *testing.T) {
	ctx := context.Background()
	lookup := lookupFunc(func(_ context.Context, userID int64) (*members.Member, error) {
		switch userID {
		case 1:
			return &members.Member{UserID: 1}, nil
		case 2:
			return &members.Member{UserID: 2, IsBanned: true}, nil
		case 3:
			return nil, errors.New("connection refused")
		}
		return nil, common.ErrNotFound
	})
	f := NewChatFilter(lookup)

	assert.True(t, f.CheckAccess(ctx, privateMessage(1)))
	assert.False(t, f.CheckAccess(ctx, privateMessage(2)), "бан")
	assert.True(t, f.CheckAccess(ctx, privateMessage(3)), "ошибка БД не блокирует")
	assert.True(t, f.CheckAccess(ctx, privateMessage(4)), "новый пользователь")

	group := privateMessage(1)
	group.Chat = telego.Chat{ID: -100500, Type: telego.ChatTypeSupergroup}
	assert.False(t, f.CheckAccess(ctx, group))

	noSender := privateMessage(1)
	noSender.From = nil
	assert.False(t, f.CheckAccess(ctx, noSender))

	fromBot := privateMessage(1)
	fromBot.From.IsBot = true
	assert.False(t, f.CheckAccess(ctx, fromBot))

	assert.False(t, f.CheckAccess(ctx, nil))
}
