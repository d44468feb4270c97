package channel

import (
	"strconv"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

// listLetters, memberLetters, simpleLetters and paramLetters partition the
// supported mode letters by what kind of state they touch.
const (
	listLetters   = "beI"
	memberLetters = "ov"
	simpleLetters = "inmspt"
	paramLetters  = "kl"
)

// handleMode applies or queries a MODE command (§4.6). Changes are
// applied one at a time; an invalid change only fails that change (with
// 472 or 441 where a numeric applies) and does not abort the rest. A
// sender who is not a channel operator gets 482 and no change is applied.
// Every change that does apply is condensed into a single MODE broadcast
// line rather than one line per change, per the redesign mandate to
// minimise wire chatter.
func (c *Coordinator) handleMode(op chanop.Op) {
	if !c.isMember(op.Conn) {
		c.sendNumeric(op.Conn, numeric.ERR_NOTONCHANNEL, c.name, "You're not on that channel")
		return
	}

	if op.ModeQuery {
		c.handleModeQuery(op)
		return
	}

	if !c.members[op.Conn].operator {
		c.sendNumeric(op.Conn, numeric.ERR_CHANOPRIVSNEEDED, c.name, "You're not channel operator")
		return
	}

	var addLetters, removeLetters []byte
	var addParams, removeParams []string

	for _, mc := range op.ModeChanges {
		ok := c.applyModeChange(op, mc)
		if !ok {
			continue
		}
		if mc.Add {
			addLetters = append(addLetters, mc.Letter)
			if mc.Param != "" {
				addParams = append(addParams, mc.Param)
			}
		} else {
			removeLetters = append(removeLetters, mc.Letter)
			if mc.Param != "" {
				removeParams = append(removeParams, mc.Param)
			}
		}
	}

	if len(addLetters) == 0 && len(removeLetters) == 0 {
		return
	}

	var flags []byte
	if len(addLetters) > 0 {
		flags = append(flags, '+')
		flags = append(flags, addLetters...)
	}
	if len(removeLetters) > 0 {
		flags = append(flags, '-')
		flags = append(flags, removeLetters...)
	}

	modeParams := append([]string{c.name, string(flags)}, addParams...)
	modeParams = append(modeParams, removeParams...)
	msg := wire.Message{Prefix: op.ConnMask, Command: "MODE", Params: modeParams}
	c.broadcast(msg, "", nil)

	c.log.WithField("nick", op.ConnNick).WithField("modes", string(flags)).Info("mode changed")
}

// applyModeChange mutates channel state for a single mode letter,
// sending any numeric error and returning false if the change could not
// be applied.
func (c *Coordinator) applyModeChange(op chanop.Op, mc chanop.ModeChange) bool {
	switch {
	case indexByte(memberLetters, mc.Letter):
		return c.applyMemberMode(op, mc)
	case indexByte(simpleLetters, mc.Letter):
		c.applySimpleMode(mc)
		return true
	case mc.Letter == 'k':
		return c.applyKeyMode(mc)
	case mc.Letter == 'l':
		return c.applyLimitMode(mc)
	case indexByte(listLetters, mc.Letter):
		return c.applyListMode(mc)
	default:
		c.sendNumeric(op.Conn, numeric.ERR_UNKNOWNMODE, string(mc.Letter), "is unknown mode char")
		return false
	}
}

func (c *Coordinator) applyMemberMode(op chanop.Op, mc chanop.ModeChange) bool {
	target, ok := c.store.ConnectionByNick(mc.Param)
	if !ok || !c.isMember(target.ID()) {
		c.sendNumeric(op.Conn, numeric.ERR_USERNOTINCHANNEL, mc.Param, c.name, "They aren't on that channel")
		return false
	}
	mem := c.members[target.ID()]
	switch mc.Letter {
	case 'o':
		mem.operator = mc.Add
	case 'v':
		mem.voice = mc.Add
	}
	return true
}

func (c *Coordinator) applySimpleMode(mc chanop.ModeChange) {
	switch mc.Letter {
	case 'i':
		c.invite = mc.Add
	case 'n':
		c.noExternal = mc.Add
	case 'm':
		c.moderated = mc.Add
	case 's':
		c.secret = mc.Add
	case 'p':
		c.private = mc.Add
	case 't':
		c.opTopic = mc.Add
	}
}

func (c *Coordinator) applyKeyMode(mc chanop.ModeChange) bool {
	if mc.Add {
		if mc.Param == "" {
			return false
		}
		c.key = mc.Param
		c.hasKey = true
		return true
	}
	c.key = ""
	c.hasKey = false
	return true
}

func (c *Coordinator) applyLimitMode(mc chanop.ModeChange) bool {
	if mc.Add {
		n, err := strconv.Atoi(mc.Param)
		if err != nil || n <= 0 {
			return false
		}
		c.limit = n
		c.hasLimit = true
		return true
	}
	c.hasLimit = false
	c.limit = 0
	return true
}

func (c *Coordinator) applyListMode(mc chanop.ModeChange) bool {
	set := c.listFor(mc.Letter)
	if set == nil {
		return false
	}
	if mc.Param == "" {
		return false // bare query; handled via handleModeQuery
	}
	if mc.Add {
		set[mc.Param] = struct{}{}
	} else {
		delete(set, mc.Param)
	}
	return true
}

func (c *Coordinator) listFor(letter byte) map[string]struct{} {
	switch letter {
	case 'b':
		return c.bans
	case 'e':
		return c.exempts
	case 'I':
		return c.inviteExempts
	}
	return nil
}

// handleModeQuery answers either a full-state MODE query (RPL_CHANNELMODEIS)
// or a list-mode query (b/e/I), depending on what op.ModeChanges carries.
func (c *Coordinator) handleModeQuery(op chanop.Op) {
	if len(op.ModeChanges) == 0 {
		letters, params := c.snapshotModesString()
		c.sendNumeric(op.Conn, numeric.RPL_CHANNELMODEIS, append([]string{c.name, "+" + letters}, params...)...)
		return
	}

	for _, mc := range op.ModeChanges {
		switch mc.Letter {
		case 'b':
			c.sendListReply(op.Conn, c.bans, numeric.RPL_BANLIST, numeric.RPL_ENDOFBANLIST, "End of channel ban list")
		case 'e':
			c.sendListReply(op.Conn, c.exempts, numeric.RPL_EXCEPTLIST, numeric.RPL_ENDOFEXCEPTLIST, "End of channel exception list")
		case 'I':
			c.sendListReply(op.Conn, c.inviteExempts, numeric.RPL_INVITELIST, numeric.RPL_ENDOFINVITELIST, "End of channel invite list")
		}
	}
}

func (c *Coordinator) sendListReply(id connid.ID, set map[string]struct{}, entry, end numeric.Code, endText string) {
	for mask := range set {
		c.sendNumeric(id, entry, c.name, mask)
	}
	c.sendNumeric(id, end, c.name, endText)
}

func indexByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

func (c *Coordinator) snapshotModesString() (string, []string) {
	snap := chanop.Snapshot{
		Invite: c.invite, NoExternal: c.noExternal, Moderated: c.moderated,
		Secret: c.secret, Private: c.private, OpTopic: c.opTopic,
		Key: c.key, HasKey: c.hasKey, Limit: c.limit, HasLimit: c.hasLimit,
	}
	return snap.ModesString()
}
