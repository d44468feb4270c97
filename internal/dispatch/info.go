package dispatch

import (
	"strconv"
	"strings"
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/channel"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

// routeWhois answers WHOIS with the 311/312/319/317/318 sequence (§4.7):
// user/host/realname, the channels they share membership in (omitting
// secret/private channels the requester isn't also a member of), idle
// time, and the terminator.
func (d *Dispatcher) routeWhois(conn store.Connection, msg wire.Message) {
	nick := msg.Param(0)
	if nick == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "WHOIS", "Not enough parameters")
		return
	}
	target, ok := d.st.ConnectionByNick(nick)
	if !ok {
		d.reply(conn, numeric.ERR_NOSUCHNICK, nick, "No such nick/channel")
		d.reply(conn, numeric.RPL_ENDOFWHOIS, nick, "End of /WHOIS list")
		return
	}

	d.reply(conn, numeric.RPL_WHOISUSER, target.Nick(), target.User(), target.Host(), "*", target.RealName())
	d.reply(conn, numeric.RPL_WHOISSERVER, target.Nick(), d.info.ServerName, "relayd IRC relay")

	targetFold := validate.FoldNick(target.Nick())
	requesterFold := validate.FoldNick(conn.Nick())
	var shared []string
	for _, ch := range d.st.AllChannels() {
		c, ok := ch.(*channel.Coordinator)
		if !ok {
			continue
		}
		snap := d.querySnapshot(c, conn.ID())
		member, isMember := memberByNick(snap, targetFold)
		if !isMember {
			continue
		}
		if (snap.Secret || snap.Private) && !hasMemberNick(snap, requesterFold) {
			continue
		}
		prefix := ""
		if member.Operator {
			prefix = "@"
		} else if member.Voice {
			prefix = "+"
		}
		shared = append(shared, prefix+snap.Name)
	}
	if len(shared) > 0 {
		d.reply(conn, numeric.RPL_WHOISCHANNELS, target.Nick(), strings.Join(shared, " "))
	}

	d.reply(conn, numeric.RPL_WHOISIDLE, target.Nick(), "0", "seconds idle")
	d.reply(conn, numeric.RPL_ENDOFWHOIS, target.Nick(), "End of /WHOIS list")
}

func memberByNick(snap chanop.Snapshot, foldedNick string) (chanop.MemberInfo, bool) {
	for _, m := range snap.Members {
		if validate.FoldNick(m.Nick) == foldedNick {
			return m, true
		}
	}
	return chanop.MemberInfo{}, false
}

func hasMemberNick(snap chanop.Snapshot, foldedNick string) bool {
	_, ok := memberByNick(snap, foldedNick)
	return ok
}

// routeWho answers WHO <channel> with one 352 per member and a 315
// terminator (§4.7). Only channel targets are supported: WHO <mask> is not
// matched against the connection set, and a name that is not an existing
// channel gets only the 315 terminator.
func (d *Dispatcher) routeWho(conn store.Connection, msg wire.Message) {
	name := msg.Param(0)
	if name == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "WHO", "Not enough parameters")
		return
	}
	ch, ok := d.channelOrNil(name)
	if !ok {
		d.reply(conn, numeric.RPL_ENDOFWHO, name, "End of /WHO list")
		return
	}
	snap := d.querySnapshot(ch, conn.ID())
	for _, m := range snap.Members {
		flags := "H"
		if m.Operator {
			flags += "@"
		} else if m.Voice {
			flags += "+"
		}
		user := m.Mask
		host := ""
		if i := strings.IndexByte(m.Mask, '!'); i >= 0 {
			user = m.Mask[:i]
			if j := strings.IndexByte(m.Mask[i+1:], '@'); j >= 0 {
				host = m.Mask[i+1+j+1:]
			}
		}
		d.reply(conn, numeric.RPL_WHOREPLY, name, user, host, d.info.ServerName, m.Nick, flags, "0 "+m.RealName)
	}
	d.reply(conn, numeric.RPL_ENDOFWHO, name, "End of /WHO list")
}

// routeList answers LIST with 322 per visible channel (secret/private
// channels are omitted unless the requester is a member) and a 323
// terminator.
func (d *Dispatcher) routeList(conn store.Connection, msg wire.Message) {
	d.reply(conn, numeric.RPL_LISTSTART, "Channel", "Users  Name")
	requesterFold := validate.FoldNick(conn.Nick())
	for _, ch := range d.st.AllChannels() {
		c, ok := ch.(*channel.Coordinator)
		if !ok {
			continue
		}
		snap := d.querySnapshot(c, conn.ID())
		if (snap.Secret || snap.Private) && !hasMemberNick(snap, requesterFold) {
			continue
		}
		d.reply(conn, numeric.RPL_LIST, c.Name(), strconv.Itoa(len(snap.Members)), snap.Topic)
	}
	d.reply(conn, numeric.RPL_LISTEND, "End of /LIST")
}

// routeNames answers NAMES <channel> the same way JOIN's implicit NAMES
// reply does, reimplemented dispatcher-side since a standalone NAMES
// isn't itself a channel operation that needs serialised membership
// mutation, only a read of the current snapshot.
func (d *Dispatcher) routeNames(conn store.Connection, msg wire.Message) {
	name := msg.Param(0)
	if name == "" {
		d.reply(conn, numeric.ERR_NEEDMOREPARAMS, "NAMES", "Not enough parameters")
		return
	}
	ch, ok := d.channelOrNil(name)
	if !ok {
		d.reply(conn, numeric.RPL_ENDOFNAMES, name, "End of /NAMES list")
		return
	}
	snap := d.querySnapshot(ch, conn.ID())

	multi := conn.Caps().Has(capability.MultiPrefix)
	userhost := conn.Caps().Has(capability.UserhostInNames)

	var names []string
	for _, m := range snap.Members {
		names = append(names, memberPrefix(m, multi)+memberDisplay(m, userhost))
	}
	sym := "="
	if snap.Secret {
		sym = "@"
	} else if snap.Private {
		sym = "*"
	}
	const perLine = 40
	for i := 0; i < len(names) || i == 0; i += perLine {
		end := i + perLine
		if end > len(names) {
			end = len(names)
		}
		d.reply(conn, numeric.RPL_NAMREPLY, sym, name, strings.Join(names[i:end], " "))
		if end >= len(names) {
			break
		}
	}
	d.reply(conn, numeric.RPL_ENDOFNAMES, name, "End of /NAMES list")
}

func memberPrefix(m chanop.MemberInfo, multi bool) string {
	var b strings.Builder
	if m.Operator {
		b.WriteByte('@')
		if !multi {
			return b.String()
		}
	}
	if m.Voice {
		b.WriteByte('+')
	}
	return b.String()
}

func memberDisplay(m chanop.MemberInfo, userhost bool) string {
	if userhost {
		return m.Mask
	}
	return m.Nick
}

func (d *Dispatcher) sendMOTD(conn store.Connection) {
	if len(d.info.MOTD) == 0 {
		d.reply(conn, numeric.ERR_NOMOTD, "MOTD File is missing")
		return
	}
	d.reply(conn, numeric.RPL_MOTDSTART, "- "+d.info.ServerName+" Message of the Day -")
	for _, line := range d.info.MOTD {
		d.reply(conn, numeric.RPL_MOTD, "- "+line)
	}
	d.reply(conn, numeric.RPL_ENDOFMOTD, "End of /MOTD command")
}

func (d *Dispatcher) routeAdmin(conn store.Connection) {
	d.reply(conn, numeric.RPL_ADMINME, d.info.ServerName, "Administrative info")
	d.reply(conn, numeric.RPL_ADMINLOC1, d.info.AdminName)
	d.reply(conn, numeric.RPL_ADMINLOC2, "relayd")
	d.reply(conn, numeric.RPL_ADMINEMAIL, d.info.AdminContact)
}

func (d *Dispatcher) routeInfo(conn store.Connection) {
	d.reply(conn, numeric.RPL_INFO, "relayd - an IRCv3 relay")
	d.reply(conn, numeric.RPL_ENDOFINFO, "End of /INFO list")
}

func (d *Dispatcher) routeVersion(conn store.Connection) {
	d.reply(conn, numeric.RPL_VERSION, d.info.Version, d.info.ServerName, "")
}

func (d *Dispatcher) routeTime(conn store.Connection) {
	d.reply(conn, numeric.RPL_TIME, d.info.ServerName, time.Now().UTC().Format(time.RFC1123))
}

func (d *Dispatcher) routeStats(conn store.Connection) {
	d.reply(conn, numeric.RPL_ENDOFSTATS, "u",
		"connections "+strconv.Itoa(d.st.ConnectionCount())+" channels "+strconv.Itoa(d.st.ChannelCount()))
}
