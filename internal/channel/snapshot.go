package channel

import "github.com/relayd/relayd/internal/chanop"

// handleSnapshot answers a read-only query (LIST/NAMES/WHOIS/GetInfo)
// with a point-in-time view of the channel, queued like any other
// operation so it observes a linearized state (§4.5 "Snapshot").
func (c *Coordinator) handleSnapshot(op chanop.Op) {
	if op.Reply == nil {
		return
	}

	members := make([]chanop.MemberInfo, 0, len(c.members))
	for id, mem := range c.members {
		conn, ok := c.conn(id)
		if !ok {
			continue
		}
		members = append(members, chanop.MemberInfo{
			Nick:     conn.Nick(),
			Mask:     conn.Mask(),
			Operator: mem.operator,
			Voice:    mem.voice,
			Account:  conn.Account(),
			RealName: conn.RealName(),
		})
	}

	bans := make([]string, 0, len(c.bans))
	for b := range c.bans {
		bans = append(bans, b)
	}

	snap := chanop.Snapshot{
		Exists:      true,
		Name:        c.name,
		Topic:       c.topic,
		TopicSetter: c.topicSetter,
		TopicTime:   c.topicTime,
		Created:     c.created,
		Invite:      c.invite,
		NoExternal:  c.noExternal,
		Moderated:   c.moderated,
		Secret:      c.secret,
		Private:     c.private,
		OpTopic:     c.opTopic,
		Key:         c.key,
		HasKey:      c.hasKey,
		Limit:       c.limit,
		HasLimit:    c.hasLimit,
		Members:     members,
		Bans:        bans,
	}

	op.Reply <- snap
}
