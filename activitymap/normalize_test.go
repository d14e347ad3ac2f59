package activitymap_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := accounts.ActivityEvent{
		EventType:  accounts.ActivityEventStatusChanged,
		Actor:      accounts.ActorRef{ID: "admin-42", Type: "admin"},
		AccountID:     "account-100",
		FromStatus: accounts.AccountStatusActive,
		ToStatus:   accounts.AccountStatusSuspended,
		Metadata: map[string]any{
			"ticket": "SEC-204",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "admin-42" {
		t.Fatalf("expected actor_id admin-42, got %q", out.ActorID)
	}
	if out.Verb != string(accounts.ActivityEventStatusChanged) {
		t.Fatalf("expected verb %q, got %q", accounts.ActivityEventStatusChanged, out.Verb)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "account-100" {
		t.Fatalf("expected object_id account-100, got %q", out.ObjectID)
	}
	if out.Channel != "accounts" {
		t.Fatalf("expected channel accounts, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["ticket"] != "SEC-204" {
		t.Fatalf("expected metadata ticket SEC-204, got %#v", out.Metadata["ticket"])
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "admin" {
		t.Fatalf("expected metadata actor_type admin, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.Metadata[activitymap.MetadataKeyFromStatus] != string(accounts.AccountStatusActive) {
		t.Fatalf("expected metadata from_status active, got %#v", out.Metadata[activitymap.MetadataKeyFromStatus])
	}
	if out.Metadata[activitymap.MetadataKeyToStatus] != string(accounts.AccountStatusSuspended) {
		t.Fatalf("expected metadata to_status suspended, got %#v", out.Metadata[activitymap.MetadataKeyToStatus])
	}

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := accounts.ActivityEvent{
		EventType: accounts.ActivityEventPasswordChanged,
		Actor:     accounts.ActorRef{Type: "customer"},
		AccountID:    "account-200",
		Metadata: map[string]any{
			"password_change_id":              "change-1",
			activitymap.MetadataKeyActorType: "existing",
		},
	}

	out := activitymap.Normalize(
		event,
		activitymap.WithDefaultChannel("security"),
		activitymap.WithDefaultObjectType("credential"),
		activitymap.WithObjectIDResolver(func(e accounts.ActivityEvent) string {
			if v, ok := e.Metadata["password_change_id"].(string); ok {
				return v
			}
			return ""
		}),
	)

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectType != "credential" {
		t.Fatalf("expected object_type credential, got %q", out.ObjectType)
	}
	if out.ObjectID != "change-1" {
		t.Fatalf("expected object_id change-1, got %q", out.ObjectID)
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "existing" {
		t.Fatalf("expected existing actor_type preserved, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActorFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  accounts.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses actor id when present",
			event:  accounts.ActivityEvent{Actor: accounts.ActorRef{ID: "actor-1"}, AccountID: "account-1"},
			expect: "actor-1",
		},
		{
			name:   "uses user id when actor id missing",
			event:  accounts.ActivityEvent{Actor: accounts.ActorRef{ID: ""}, AccountID: "account-2"},
			expect: "account-2",
		},
		{
			name:   "uses default fallback when actor and user missing",
			event:  accounts.ActivityEvent{},
			expect: "system",
		},
		{
			name:   "uses configured fallback when actor and user missing",
			event:  accounts.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("job")},
			expect: "job",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}
