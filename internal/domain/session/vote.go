package session

import (
	"fmt"

	"github.com/alchemorsel/fusionchef/internal/domain/recipe"
)

// Vote is the user's success/fail verdict on a recipe in this session
type Vote string

const (
	VoteNone    Vote = "none"
	VoteSuccess Vote = "success"
	VoteFail    Vote = "fail"
)

// ParseVote accepts "success" or "fail"
func ParseVote(s string) (Vote, error) {
	switch Vote(s) {
	case VoteSuccess, VoteFail:
		return Vote(s), nil
	}
	return "", fmt.Errorf("%w: vote %q", ErrUnknownValue, s)
}

func bucket(v Vote, n int) recipe.VoteDelta {
	if v == VoteSuccess {
		return recipe.VoteDelta{Success: n}
	}
	return recipe.VoteDelta{Fail: n}
}

// Cast applies a vote of type t. Voting the current vote again cancels it; voting the
// other type switches in one delta.
func (v Vote) Cast(t Vote) (Vote, recipe.VoteDelta) {
	switch v {
	case t:
		return VoteNone, bucket(t, -1)
	case VoteNone, "":
		return t, bucket(t, 1)
	default:
		d := bucket(t, 1)
		o := bucket(v, -1)
		return t, recipe.VoteDelta{Success: d.Success + o.Success, Fail: d.Fail + o.Fail}
	}
}

// Cancel withdraws the current vote. It is a no-op without a vote.
func (v Vote) Cancel() (Vote, recipe.VoteDelta) {
	if v == VoteNone || v == "" {
		return VoteNone, recipe.VoteDelta{}
	}
	return VoteNone, bucket(v, -1)
}
