// Copyright (c) 2021 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dao

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Agent selects which of the two Aragon voting apps a vote belongs to.
type Agent byte

const (
	// AgentPrimary is the primary voting app, high quorum.
	AgentPrimary Agent = 0
	// AgentSecondary is the secondary voting app, low quorum.
	AgentSecondary Agent = 1
)

// String implements the stringer interface.
func (a Agent) String() string {
	switch a {
	case AgentPrimary:
		return "primary"
	case AgentSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("agent(%d)", byte(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Agent) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Agent) UnmarshalText(text []byte) error {
	parsed, err := ParseAgent(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAgent converts a string presented agent into Agent type.
func ParseAgent(s string) (Agent, error) {
	switch strings.ToLower(s) {
	case "primary":
		return AgentPrimary, nil
	case "secondary":
		return AgentSecondary, nil
	default:
		return 0, errors.Errorf("unknown voting agent %q", s)
	}
}

// VotingRef identifies one vote: the agent it runs on and the
// contract-assigned vote id, unique per agent only.
type VotingRef struct {
	Agent Agent  `json:"agent"`
	ID    uint64 `json:"id"`
}

// Key folds the ref into a single map key. Vote ids grow one at a time per
// agent, so shifting the id and tagging the agent in the low bit keeps keys
// collision free.
func (r VotingRef) Key() uint64 {
	return r.ID<<1 | uint64(r.Agent&1)
}

// String implements the stringer interface, e.g. "primary-7".
func (r VotingRef) String() string {
	return fmt.Sprintf("%s-%d", r.Agent, r.ID)
}

// VotingRefFromKey is the inverse of Key.
func VotingRefFromKey(key uint64) VotingRef {
	return VotingRef{Agent: Agent(key & 1), ID: key >> 1}
}

// ParseVotingRef accepts either the "agent-id" display form or a bare
// numeric key.
func ParseVotingRef(s string) (VotingRef, error) {
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		agent, err := ParseAgent(s[:i])
		if err != nil {
			return VotingRef{}, err
		}
		id, err := strconv.ParseUint(s[i+1:], 10, 63)
		if err != nil {
			return VotingRef{}, errors.WithMessage(err, "invalid vote id")
		}
		return VotingRef{Agent: agent, ID: id}, nil
	}
	key, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return VotingRef{}, errors.WithMessage(err, "invalid voting key")
	}
	return VotingRefFromKey(key), nil
}
