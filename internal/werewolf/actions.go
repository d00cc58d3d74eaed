package werewolf

import (
	"sort"
	"strings"
)

// ActionType is the closed set of night actions the server validates.
type ActionType string

const (
	ActionKill   ActionType = "KILL"
	ActionSave   ActionType = "SAVE"
	ActionCheck  ActionType = "CHECK"
	ActionHeal   ActionType = "HEAL"
	ActionPoison ActionType = "POISON"
	ActionLink   ActionType = "LINK"
	ActionSkip   ActionType = "SKIP"
)

// SkipTarget is the sentinel target meaning "no action taken". It is
// distinct from an empty selection, which is never sent.
const SkipTarget = "SKIP"

// LinkTarget encodes a LINK pair as a single target string. The pair is
// order-insensitive, so the encoding is canonical.
func LinkTarget(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// SplitLinkTarget is the inverse of LinkTarget. ok is false unless the
// target holds exactly two non-empty ids.
func SplitLinkTarget(target string) (a, b string, ok bool) {
	parts := strings.Split(target, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
