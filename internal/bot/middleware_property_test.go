package bot

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"minigame-bot/internal/config"
)

// TestOwnerCheckProperty: a sender counts as the owner exactly when its id
// is listed in bot.owner_ids.
func TestOwnerCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOwners := rapid.IntRange(0, 10).Draw(t, "numOwners")
		ownerIDs := make([]int64, numOwners)
		for i := range ownerIDs {
			ownerIDs[i] = rapid.Int64Range(1, 1000000000).Draw(t, "ownerID")
		}
		cfg := &config.Config{Bot: config.BotConfig{OwnerIDs: ownerIDs}}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")

		expected := false
		for _, id := range ownerIDs {
			if id == userID {
				expected = true
				break
			}
		}
		if got := cfg.IsOwner(userID); got != expected {
			t.Fatalf("IsOwner(%d) with owners %v = %v, want %v", userID, ownerIDs, got, expected)
		}
	})
}

// TestKnownOwnerProperty: every listed owner is recognized.
func TestKnownOwnerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ownerIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000000000), 1, 10).Draw(t, "owners")
		cfg := &config.Config{Bot: config.BotConfig{OwnerIDs: ownerIDs}}

		idx := rapid.IntRange(0, len(ownerIDs)-1).Draw(t, "idx")
		if !cfg.IsOwner(ownerIDs[idx]) {
			t.Fatalf("owner %d not recognized", ownerIDs[idx])
		}
	})
}

// TestControlGateProperty: enabled chats pass everything; disabled chats pass
// only the control command, in any letter case and with any arguments.
func TestControlGateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		enabled := rapid.Bool().Draw(t, "enabled")
		isControl := rapid.Bool().Draw(t, "isControl")

		text := rapid.StringMatching(`![a-z\-]{1,10}`).Draw(t, "trigger")
		if isControl {
			text = "!bot"
			if rapid.Bool().Draw(t, "upper") {
				text = strings.ToUpper(text)
			}
		} else if strings.EqualFold(text, "!bot") {
			text += "x"
		}
		if rapid.Bool().Draw(t, "withArgs") {
			text += " " + rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "arg")
		}

		want := enabled || isControl
		if got := passesControl(enabled, text); got != want {
			t.Fatalf("passesControl(%v, %q) = %v, want %v", enabled, text, got, want)
		}
	})
}

// TestRenderHTMLEscapesProperty: text without fences is escaped and never
// contains raw angle brackets.
func TestRenderHTMLEscapesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z <>&"]{0,30}`).Draw(t, "text")
		out := renderHTML(text)
		if strings.ContainsAny(out, "<>") {
			t.Fatalf("renderHTML(%q) = %q leaks markup", text, out)
		}
	})
}
