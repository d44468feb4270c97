package channel

import (
	"strconv"
	"strings"
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/wire"
)

// sendNumeric delivers a numeric reply directly to connection id,
// addressed by its current nickname (or "*" if somehow unregistered).
func (c *Coordinator) sendNumeric(id connid.ID, code numeric.Code, params ...string) {
	conn, ok := c.conn(id)
	if !ok {
		return
	}
	target := conn.Nick()
	if target == "" {
		target = "*"
	}
	msg := numeric.Reply(c.serverName, target, code, params...)
	c.sendTo(id, wire.Envelope{Msg: msg, Time: time.Now()})
}

// sendTopicTo emits 332+333 (or 331) to id, per JOIN's reply contract.
func (c *Coordinator) sendTopicTo(id connid.ID) {
	if c.topic == "" {
		c.sendNumeric(id, numeric.RPL_NOTOPIC, c.name, "No topic is set")
		return
	}
	c.sendNumeric(id, numeric.RPL_TOPIC, c.name, c.topic)
	c.sendNumeric(id, numeric.RPL_TOPICWHOTIME, c.name, c.topicSetter, strconv.FormatInt(c.topicTime.Unix(), 10))
}

// sendNamesTo emits 353 (possibly split across multiple lines) then 366
// to id.
func (c *Coordinator) sendNamesTo(id connid.ID) {
	requester, ok := c.conn(id)
	if !ok {
		return
	}
	multi := requester.Caps().Has(capability.MultiPrefix)
	userhost := requester.Caps().Has(capability.UserhostInNames)

	var names []string
	for mid, mem := range c.members {
		target, ok := c.conn(mid)
		if !ok {
			continue
		}
		names = append(names, namePrefix(mem, multi)+displayName(target, userhost))
	}

	sym := "="
	if c.secret {
		sym = "@"
	} else if c.private {
		sym = "*"
	}

	const perLine = 40
	for i := 0; i < len(names) || i == 0; i += perLine {
		end := i + perLine
		if end > len(names) {
			end = len(names)
		}
		c.sendNumeric(id, numeric.RPL_NAMREPLY, sym, c.name, strings.Join(names[i:end], " "))
		if end >= len(names) {
			break
		}
	}
	c.sendNumeric(id, numeric.RPL_ENDOFNAMES, c.name, "End of /NAMES list")
}

func namePrefix(mem *member, multi bool) string {
	if mem == nil {
		return ""
	}
	var b strings.Builder
	if mem.operator {
		b.WriteByte('@')
		if !multi {
			return b.String()
		}
	}
	if mem.voice {
		b.WriteByte('+')
	}
	return b.String()
}

func displayName(conn interface {
	Nick() string
	User() string
	Host() string
}, userhost bool) string {
	if userhost {
		return conn.Nick() + "!" + conn.User() + "@" + conn.Host()
	}
	return conn.Nick()
}
