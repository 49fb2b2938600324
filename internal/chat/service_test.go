package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pinly/pinly-api/internal/chat"
	"github.com/pinly/pinly-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubGate blocks any text containing one of the configured fragments.
type stubGate struct {
	blocked []string
}

func (g stubGate) IsSafe(_ context.Context, text string) bool {
	for _, b := range g.blocked {
		if strings.Contains(text, b) {
			return false
		}
	}
	return true
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// A pooled :memory: database is one database per connection; pin the
	// pool to a single connection so every query sees the same schema.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Membership{},
		&models.Message{},
		&models.Notification{},
		&models.Follow{},
		&models.Pin{},
		&models.PinLike{},
		&models.Comment{},
		&models.CommentLike{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newService(t *testing.T, gate chat.SafetyGate) (*chat.Service, *gorm.DB) {
	t.Helper()
	db := setupDB(t)
	return chat.New(db, gate, nil), db
}

func createUser(t *testing.T, db *gorm.DB, username string) uuid.UUID {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user.ID
}

func membership(t *testing.T, db *gorm.DB, conversationID, userID uuid.UUID) (*models.Membership, bool) {
	t.Helper()
	var mem models.Membership
	err := db.First(&mem, "conversation_id = ? AND user_id = ?", conversationID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false
	}
	if err != nil {
		t.Fatalf("load membership: %v", err)
	}
	return &mem, true
}

func notificationsFor(t *testing.T, db *gorm.DB, recipient uuid.UUID, kind string) []models.Notification {
	t.Helper()
	var notifs []models.Notification
	if err := db.Where("recipient_id = ? AND kind = ?", recipient, kind).Find(&notifs).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	return notifs
}

func TestCreateGroup(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	owner := createUser(t, db, "alice")

	conv, err := svc.CreateGroup(ctx, owner, models.CreateGroupRequest{
		Name:           "hiking",
		Description:    "weekend hikes",
		IsDiscoverable: true,
	})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if conv.Kind != models.ConversationGroup {
		t.Errorf("kind = %q, want group", conv.Kind)
	}
	if conv.OwnerID == nil || *conv.OwnerID != owner {
		t.Errorf("owner = %v, want %v", conv.OwnerID, owner)
	}

	mem, ok := membership(t, db, conv.ID, owner)
	if !ok {
		t.Fatal("owner has no membership")
	}
	if !mem.IsAccepted || !mem.IsModerator {
		t.Errorf("owner membership accepted=%v moderator=%v, want both true", mem.IsAccepted, mem.IsModerator)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	svc, db := newService(t, stubGate{blocked: []string{"badword"}})
	ctx := context.Background()
	owner := createUser(t, db, "alice")

	tests := []struct {
		name string
		req  models.CreateGroupRequest
		want error
	}{
		{"empty name", models.CreateGroupRequest{Name: "  "}, chat.ErrInvalidArgument},
		{"unsafe name", models.CreateGroupRequest{Name: "badword club"}, chat.ErrContentRejected},
		{"unsafe description", models.CreateGroupRequest{Name: "ok", Description: "badword"}, chat.ErrContentRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateGroup(ctx, owner, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	var count int64
	db.Model(&models.Conversation{}).Count(&count)
	if count != 0 {
		t.Errorf("conversations persisted = %d, want 0", count)
	}
}

func TestJoinAcceptFlow(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	conv, err := svc.CreateGroup(ctx, alice, models.CreateGroupRequest{Name: "g", IsDiscoverable: true})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	if err := svc.Join(ctx, bob, conv.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	mem, ok := membership(t, db, conv.ID, bob)
	if !ok {
		t.Fatal("join created no membership")
	}
	if mem.IsAccepted {
		t.Error("join membership should be pending")
	}

	if got := notificationsFor(t, db, alice, models.NotifJoinRequest); len(got) != 1 {
		t.Fatalf("owner join-request notifications = %d, want 1", len(got))
	}

	// joining twice conflicts
	if err := svc.Join(ctx, bob, conv.ID); !errors.Is(err, chat.ErrConflict) {
		t.Errorf("second join err = %v, want ErrConflict", err)
	}

	if err := svc.AcceptJoin(ctx, alice, conv.ID, bob); err != nil {
		t.Fatalf("AcceptJoin: %v", err)
	}

	mem, _ = membership(t, db, conv.ID, bob)
	if !mem.IsAccepted {
		t.Error("membership not accepted after AcceptJoin")
	}
	if got := notificationsFor(t, db, bob, models.NotifJoinAccepted); len(got) != 1 {
		t.Errorf("join-accepted notifications = %d, want 1", len(got))
	}
	// the owner's join-request notification was consumed
	if got := notificationsFor(t, db, alice, models.NotifJoinRequest); len(got) != 0 {
		t.Errorf("join-request notifications after accept = %d, want 0", len(got))
	}

	views, _, err := svc.ListNotifications(ctx, alice, 20)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	for _, v := range views {
		if v.Kind == models.NotifJoinRequest {
			t.Error("consumed join request still listed")
		}
	}
}

func TestJoinAuthorization(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	private, _ := svc.CreateGroup(ctx, alice, models.CreateGroupRequest{Name: "private"})
	if err := svc.Join(ctx, bob, private.ID); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("join private group err = %v, want ErrForbidden", err)
	}

	dm, err := svc.CreateDirect(ctx, alice, bob)
	if err != nil {
		t.Fatalf("CreateDirect: %v", err)
	}
	if err := svc.Join(ctx, carol, dm.ID); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("join direct conversation err = %v, want ErrForbidden", err)
	}

	// a plain member cannot accept joins
	open, _ := svc.CreateGroup(ctx, alice, models.CreateGroupRequest{Name: "open", IsDiscoverable: true})
	if err := svc.Join(ctx, bob, open.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := svc.AcceptJoin(ctx, alice, open.ID, bob); err != nil {
		t.Fatalf("AcceptJoin: %v", err)
	}
	if err := svc.Join(ctx, carol, open.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := svc.AcceptJoin(ctx, bob, open.ID, carol); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("plain member accept err = %v, want ErrForbidden", err)
	}
	// accepting an accepted member conflicts
	if err := svc.AcceptJoin(ctx, alice, open.ID, bob); !errors.Is(err, chat.ErrConflict) {
		t.Errorf("double accept err = %v, want ErrConflict", err)
	}
	// accepting a stranger is not found
	if err := svc.AcceptJoin(ctx, alice, open.ID, uuid.New()); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("accept stranger err = %v, want ErrNotFound", err)
	}
}

func TestDeclineJoin(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	conv, _ := svc.CreateGroup(ctx, alice, models.CreateGroupRequest{Name: "g", IsDiscoverable: true})
	if err := svc.Join(ctx, bob, conv.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := svc.DeclineJoin(ctx, alice, conv.ID, bob); err != nil {
		t.Fatalf("DeclineJoin: %v", err)
	}
	if _, ok := membership(t, db, conv.ID, bob); ok {
		t.Error("membership survived decline")
	}
	if got := notificationsFor(t, db, alice, models.NotifJoinRequest); len(got) != 0 {
		t.Errorf("join-request notifications after decline = %d, want 0", len(got))
	}
}

func TestAddMember(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	private, _ := svc.CreateGroup(ctx, alice, models.CreateGroupRequest{Name: "private"})

	if err := svc.AddMember(ctx, alice, private.ID, "bob"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	var bob models.User
	db.First(&bob, "username = ?", "bob")
	mem, ok := membership(t, db, private.ID, bob.ID)
	if !ok || !mem.IsAccepted {
		t.Fatal("added member should have an accepted membership")
	}
	if got := notificationsFor(t, db, bob.ID, models.NotifAddedToGroup); len(got) != 1 {
		t.Errorf("added-to-group notifications = %d, want 1", len(got))
	}

	// duplicates conflict, unknown handles are not found
	if err := svc.AddMember(ctx, alice, private.ID, "bob"); !errors.Is(err, chat.ErrConflict) {
		t.Errorf("duplicate add err = %v, want ErrConflict", err)
	}
	if err := svc.AddMember(ctx, alice, private.ID, "nobody"); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("unknown handle err = %v, want ErrNotFound", err)
	}

	// plain members cannot add
	if err := svc.AddMember(ctx, bob.ID, private.ID, "carol"); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("plain member add err = %v, want ErrForbidden", err)
	}
	_ = carol
}

func TestAddMemberDiscoverableAlwaysForbidden(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")

	open, _ := svc.CreateGroup(ctx, alice, models.CreateGroupRequest{Name: "open", IsDiscoverable: true})

	// even the owner cannot add into a discoverable group
	if err := svc.AddMember(ctx, alice, open.ID, "bob"); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("owner add into discoverable err = %v, want ErrForbidden", err)
	}

	dm, _ := svc.CreateDirect(ctx, alice, createUser(t, db, "carol"))
	if err := svc.AddMember(ctx, alice, dm.ID, "bob"); !errors.Is(err, chat.ErrInvalidArgument) {
		t.Errorf("add into direct err = %v, want ErrInvalidArgument", err)
	}
}

func TestRemoveMember(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	mod := createUser(t, db, "mod")
	member := createUser(t, db, "member")
	other := createUser(t, db, "other")

	conv, _ := svc.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "g"})
	for _, name := range []string{"mod", "member", "other"} {
		if err := svc.AddMember(ctx, owner, conv.ID, name); err != nil {
			t.Fatalf("AddMember %s: %v", name, err)
		}
	}
	if err := svc.ToggleModerator(ctx, owner, conv.ID, mod); err != nil {
		t.Fatalf("ToggleModerator: %v", err)
	}

	// nobody removes the owner, not even a delegated moderator
	if err := svc.RemoveMember(ctx, mod, conv.ID, owner); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("moderator removing owner err = %v, want ErrForbidden", err)
	}
	if err := svc.RemoveMember(ctx, member, conv.ID, owner); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("member removing owner err = %v, want ErrForbidden", err)
	}

	// a plain member cannot remove another plain member
	if err := svc.RemoveMember(ctx, member, conv.ID, other); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("member removing member err = %v, want ErrForbidden", err)
	}

	// a delegated moderator cannot remove another delegated moderator
	mod2 := createUser(t, db, "mod2")
	if err := svc.AddMember(ctx, owner, conv.ID, "mod2"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := svc.ToggleModerator(ctx, owner, conv.ID, mod2); err != nil {
		t.Fatalf("ToggleModerator: %v", err)
	}
	if err := svc.RemoveMember(ctx, mod, conv.ID, mod2); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("moderator removing moderator err = %v, want ErrForbidden", err)
	}

	// a delegated moderator removes a plain member
	if err := svc.RemoveMember(ctx, mod, conv.ID, other); err != nil {
		t.Errorf("moderator removing member: %v", err)
	}
	if _, ok := membership(t, db, conv.ID, other); ok {
		t.Error("membership survived removal")
	}

	// the owner removes a delegated moderator
	if err := svc.RemoveMember(ctx, owner, conv.ID, mod2); err != nil {
		t.Errorf("owner removing moderator: %v", err)
	}

	// self-removal works as leave
	if err := svc.RemoveMember(ctx, member, conv.ID, member); err != nil {
		t.Errorf("self-removal: %v", err)
	}
	if _, ok := membership(t, db, conv.ID, member); ok {
		t.Error("membership survived self-removal")
	}
}

func TestLeave(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	member := createUser(t, db, "member")

	conv, _ := svc.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "g"})
	if err := svc.AddMember(ctx, owner, conv.ID, "member"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	third := createUser(t, db, "third")
	if err := svc.AddMember(ctx, owner, conv.ID, "third"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	// the owner cannot walk away from a populated group
	if err := svc.Leave(ctx, owner, conv.ID); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("owner leave err = %v, want ErrForbidden", err)
	}

	if err := svc.Leave(ctx, member, conv.ID); err != nil {
		t.Fatalf("member leave: %v", err)
	}
	if _, ok := membership(t, db, conv.ID, member); ok {
		t.Error("membership survived leave")
	}
	_ = third

	// a non-member cannot leave
	if err := svc.Leave(ctx, member, conv.ID); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("leave twice err = %v, want ErrNotFound", err)
	}
}

func TestLeaveDeletesEmptyConversation(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	owner := createUser(t, db, "owner")

	conv, _ := svc.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "solo"})
	if _, err := svc.SendMessage(ctx, owner, conv.ID, "talking to myself"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// sole member: the owner may leave and the conversation dies with them
	if err := svc.Leave(ctx, owner, conv.ID); err != nil {
		t.Fatalf("owner leave: %v", err)
	}

	var convCount, memCount, msgCount int64
	db.Model(&models.Conversation{}).Where("id = ?", conv.ID).Count(&convCount)
	db.Model(&models.Membership{}).Where("conversation_id = ?", conv.ID).Count(&memCount)
	db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&msgCount)
	if convCount != 0 || memCount != 0 || msgCount != 0 {
		t.Errorf("dangling rows after delete: conv=%d mem=%d msg=%d", convCount, memCount, msgCount)
	}
}

func TestToggleModerator(t *testing.T) {
	svc, db := newService(t, stubGate{})
	ctx := context.Background()
	owner := createUser(t, db, "owner")
	mod := createUser(t, db, "mod")
	member := createUser(t, db, "member")

	conv, _ := svc.CreateGroup(ctx, owner, models.CreateGroupRequest{Name: "g"})
	for _, name := range []string{"mod", "member"} {
		if err := svc.AddMember(ctx, owner, conv.ID, name); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
	}

	if err := svc.ToggleModerator(ctx, owner, conv.ID, mod); err != nil {
		t.Fatalf("ToggleModerator: %v", err)
	}
	mem, _ := membership(t, db, conv.ID, mod)
	if !mem.IsModerator {
		t.Error("moderator flag not set")
	}

	// only the owner delegates; the owner cannot be demoted
	if err := svc.ToggleModerator(ctx, mod, conv.ID, member); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("moderator delegating err = %v, want ErrForbidden", err)
	}
	if err := svc.ToggleModerator(ctx, owner, conv.ID, owner); !errors.Is(err, chat.ErrForbidden) {
		t.Errorf("toggling owner err = %v, want ErrForbidden", err)
	}

	// toggling again demotes
	if err := svc.ToggleModerator(ctx, owner, conv.ID, mod); err != nil {
		t.Fatalf("ToggleModerator: %v", err)
	}
	mem, _ = membership(t, db, conv.ID, mod)
	if mem.IsModerator {
		t.Error("moderator flag not cleared")
	}
}
