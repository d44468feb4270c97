// Package dispatch implements the server dispatcher (§4.7): the
// component that routes commands which cross channels or require a
// global lookup (PRIVMSG to a nick, WHOIS, LIST, CHATHISTORY), and
// creates/destroys channel coordinators on demand.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relayd/relayd/internal/chanop"
	"github.com/relayd/relayd/internal/channel"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/metrics"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/supervise"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

// Info is the static introspection text the dispatcher hands out for
// MOTD/ADMIN/INFO/VERSION (§4.7).
type Info struct {
	ServerName   string
	Version      string
	AdminContact string
	AdminName    string
	MOTD         []string
}

// Dispatcher is the shared routing/creation authority for everything
// that is not a single channel's own business.
type Dispatcher struct {
	ctx        context.Context
	st         *store.Store
	hist       *history.Buffer
	supervisor *supervise.Group
	metrics    *metrics.Metrics
	log        *logrus.Entry
	info       Info
}

// New builds a Dispatcher. ctx is the root context channel coordinators
// run under; it is cancelled once at process shutdown.
func New(ctx context.Context, st *store.Store, hist *history.Buffer, supervisor *supervise.Group, m *metrics.Metrics, log *logrus.Entry, info Info) *Dispatcher {
	return &Dispatcher{ctx: ctx, st: st, hist: hist, supervisor: supervisor, metrics: m, log: log, info: info}
}

// Route implements connection.Router: it is the single entry point for
// every command a connection actor does not handle locally.
func (d *Dispatcher) Route(conn store.Connection, msg wire.Message) {
	switch msg.Command {
	case "PRIVMSG", "NOTICE", "TAGMSG":
		d.routeMessage(conn, msg)
	case "JOIN":
		d.routeJoin(conn, msg)
	case "PART":
		d.routePart(conn, msg)
	case "TOPIC":
		d.routeTopic(conn, msg)
	case "KICK":
		d.routeKick(conn, msg)
	case "MODE":
		d.routeMode(conn, msg)
	case "INVITE":
		d.routeInvite(conn, msg)
	case "WHOIS":
		d.routeWhois(conn, msg)
	case "WHO":
		d.routeWho(conn, msg)
	case "LIST":
		d.routeList(conn, msg)
	case "NAMES":
		d.routeNames(conn, msg)
	case "MOTD":
		d.sendMOTD(conn)
	case "ADMIN":
		d.routeAdmin(conn)
	case "INFO":
		d.routeInfo(conn)
	case "VERSION":
		d.routeVersion(conn)
	case "TIME":
		d.routeTime(conn)
	case "STATS":
		d.routeStats(conn)
	case "CHATHISTORY":
		d.routeChatHistory(conn, msg)
	case "REDACT":
		d.routeRedact(conn, msg)
	case "MARKREAD":
		d.routeMarkRead(conn, msg)
	default:
		if msg.Command != "NOTICE" {
			d.reply(conn, numeric.ERR_UNKNOWNCOMMAND, msg.Command, "Unknown command")
		}
	}
}

// reply enqueues a numeric directly to conn.
func (d *Dispatcher) reply(conn store.Connection, code numeric.Code, params ...string) {
	target := conn.Nick()
	if target == "" {
		target = "*"
	}
	conn.EnqueueOutbound(wire.Envelope{Msg: numeric.Reply(d.info.ServerName, target, code, params...)})
}

// channelOrNil resolves a channel coordinator by name without creating
// one.
func (d *Dispatcher) channelOrNil(name string) (*channel.Coordinator, bool) {
	ch, ok := d.st.Channel(name)
	if !ok {
		return nil, false
	}
	c, ok := ch.(*channel.Coordinator)
	return c, ok
}

// getOrCreateChannel resolves name to its coordinator, spawning a new
// supervised one (and registering it with the store) if this is the
// first JOIN to reach it.
func (d *Dispatcher) getOrCreateChannel(name string) *channel.Coordinator {
	if c, ok := d.channelOrNil(name); ok {
		return c
	}

	folded := validate.FoldChannel(name)
	var created *channel.Coordinator
	created = channel.New(name, d.info.ServerName, d.st, d.hist, d.log, func(c *channel.Coordinator) {
		d.st.RemoveChannel(folded, c)
		c.Post(chanop.Op{Kind: chanop.Terminate})
		d.log.WithField("channel", c.Name()).Info("channel destroyed")
	})
	d.st.AddChannel(created)
	d.supervisor.Go("channel:"+name, func() { created.Run(d.ctx) })
	d.log.WithField("channel", name).Info("channel created")
	return created
}

// SeedChannel creates (or reuses) the named channel and replays restored
// topic/mode/ban state directly into it, with no acting connection. It
// is used by cmd/relayd to rehydrate persisted channels before the
// listener starts accepting connections, keeping restoration on the
// same Op path a live MODE/TOPIC command takes.
func (d *Dispatcher) SeedChannel(name, topic, topicSetter string, topicTime time.Time, modeChanges []chanop.ModeChange, bans []string) {
	ch := d.getOrCreateChannel(name)
	if topic != "" {
		ch.Post(chanop.Op{Kind: chanop.SetTopic, ConnNick: topicSetter, Topic: topic})
	}
	if len(modeChanges) > 0 {
		ch.Post(chanop.Op{Kind: chanop.Mode, ModeChanges: modeChanges})
	}
	for _, mask := range bans {
		ch.Post(chanop.Op{Kind: chanop.Mode, ModeChanges: []chanop.ModeChange{{Add: true, Letter: 'b', Param: mask}}})
	}
}

func isChannelName(s string) bool {
	return strings.HasPrefix(s, "#") || strings.HasPrefix(s, "&")
}
