package connection

import (
	"strconv"
	"strings"
	"time"

	"github.com/relayd/relayd/internal/capability"
	"github.com/relayd/relayd/internal/numeric"
	"github.com/relayd/relayd/internal/validate"
	"github.com/relayd/relayd/internal/wire"
)

// preRegCommands is the fixed allow-list accepted before registration
// (§4.4 "PreRegistration").
var preRegCommands = map[string]struct{}{
	"CAP": {}, "PASS": {}, "NICK": {}, "USER": {}, "QUIT": {},
	"PING": {}, "PONG": {}, "AUTHENTICATE": {},
}

// handleMessage is the single entry point for every inbound parsed
// message, called from the read pump after a token has been consumed
// from the rate limiter.
func (c *Conn) handleMessage(msg wire.Message) {
	if c.getState() != Registered {
		if _, ok := preRegCommands[msg.Command]; !ok {
			c.sendNumeric(numeric.ERR_NOTREGISTERED, "You have not registered")
			return
		}
	}

	switch msg.Command {
	case "CAP":
		c.handleCAP(msg)
	case "PASS":
		// Password checking is an external-collaborator concern (no
		// persistent account database, per spec.md's Non-goals); accepted
		// and discarded.
	case "NICK":
		c.handleNick(msg)
	case "USER":
		c.handleUser(msg)
	case "PING":
		c.handlePing(msg)
	case "PONG":
		c.handlePong(msg)
	case "QUIT":
		reason := msg.Trailing()
		if reason == "" {
			reason = "Client quit"
		}
		c.Close(reason)
	case "AUTHENTICATE":
		c.sendStandardReply(numeric.Fail, "AUTHENTICATE", numeric.CodeAccessDenied, nil, "SASL is not supported")
	default:
		c.router.Route(c, msg)
	}

	c.maybePromote()
}

func (c *Conn) handleCAP(msg wire.Message) {
	sub := strings.ToUpper(msg.Param(0))
	switch sub {
	case "LS":
		c.setState(capNegotiatingIfPre(c.getState()))
		c.mu.Lock()
		c.capNegotiating = true
		c.mu.Unlock()
		c.sendRaw(wire.Message{
			Prefix:  c.serverName,
			Command: "CAP",
			Params:  []string{c.displayNick(), "LS", capability.AdvertisedLine()},
		})
	case "REQ":
		c.mu.Lock()
		c.capNegotiating = true
		c.mu.Unlock()
		requested := strings.Fields(msg.Trailing())
		for _, name := range requested {
			enable := true
			n := name
			if strings.HasPrefix(n, "-") {
				enable = false
				n = n[1:]
			}
			if !capability.IsSupported(n) {
				c.sendRaw(wire.Message{
					Prefix:  c.serverName,
					Command: "CAP",
					Params:  []string{c.displayNick(), "NAK", strings.Join(requested, " ")},
				})
				return
			}
			_ = enable
		}
		for _, name := range requested {
			enable := true
			n := name
			if strings.HasPrefix(n, "-") {
				enable = false
				n = n[1:]
			}
			if enable {
				c.caps.Enable(capability.Name(n))
			} else {
				c.caps.Disable(capability.Name(n))
			}
		}
		c.sendRaw(wire.Message{
			Prefix:  c.serverName,
			Command: "CAP",
			Params:  []string{c.displayNick(), "ACK", strings.Join(requested, " ")},
		})
	case "LIST":
		names := make([]string, 0)
		for _, n := range c.caps.Names() {
			names = append(names, string(n))
		}
		c.sendRaw(wire.Message{
			Prefix:  c.serverName,
			Command: "CAP",
			Params:  []string{c.displayNick(), "LIST", strings.Join(names, " ")},
		})
	case "END":
		c.mu.Lock()
		c.capNegotiating = false
		c.mu.Unlock()
	default:
		c.sendNumeric(numeric.ERR_UNKNOWNCOMMAND, "CAP", "Unknown CAP subcommand")
	}
}

func capNegotiatingIfPre(s State) State {
	if s == PreRegistration {
		return CapNegotiating
	}
	return s
}

func (c *Conn) handleNick(msg wire.Message) {
	newNick := msg.Param(0)
	if newNick == "" {
		c.sendNumeric(numeric.ERR_NEEDMOREPARAMS, "NICK", "Not enough parameters")
		return
	}
	if !validate.Nickname(newNick) {
		c.sendNumeric(numeric.ERR_ERRONEUSNICKNAME, newNick, "Erroneous nickname")
		return
	}

	c.mu.Lock()
	oldNick := c.nick
	c.mu.Unlock()

	if !c.st.ClaimNick(c.id, oldNick, newNick) {
		c.sendNumeric(numeric.ERR_NICKNAMEINUSE, newNick, "Nickname is already in use")
		return
	}

	c.mu.Lock()
	c.nick = newNick
	c.mu.Unlock()
}

func (c *Conn) handleUser(msg wire.Message) {
	c.mu.Lock()
	already := c.user != ""
	c.mu.Unlock()
	if already {
		c.sendNumeric(numeric.ERR_ALREADYREGISTRED, "You may not reregister")
		return
	}
	if msg.Param(0) == "" || msg.Param(1) == "" || msg.Param(2) == "" || msg.Trailing() == "" {
		c.sendNumeric(numeric.ERR_NEEDMOREPARAMS, "USER", "Not enough parameters")
		return
	}
	c.mu.Lock()
	c.user = msg.Param(0)
	c.realname = msg.Trailing()
	c.mu.Unlock()
}

func (c *Conn) handlePing(msg wire.Message) {
	c.sendRaw(wire.Message{Prefix: c.serverName, Command: "PONG", Params: []string{c.serverName, msg.Trailing()}})
}

func (c *Conn) handlePong(msg wire.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Trailing() == c.pingToken || msg.Param(0) == c.pingToken {
		c.pingOutstanding = false
	}
}

// maybePromote checks the eligibility condition from §4.4 ("a valid
// nickname and a USER record AND no capability negotiation in progress")
// and, if newly met, runs the promotion sequence exactly once.
func (c *Conn) maybePromote() {
	c.mu.Lock()
	eligible := !c.registered && c.nick != "" && c.user != "" && !c.capNegotiating && c.state != Closing
	if eligible {
		c.registered = true
	}
	c.mu.Unlock()

	if !eligible {
		return
	}

	c.setState(Registered)
	c.promote()
}

func (c *Conn) promote() {
	nick := c.displayNick()

	c.sendNumeric(numeric.RPL_WELCOME, "Welcome to the relay network "+c.Mask())
	c.sendNumeric(numeric.RPL_YOURHOST, "Your host is "+c.serverName+", running version "+c.versionOrDefault())
	c.sendNumeric(numeric.RPL_CREATED, "This server was created "+c.createdAt.UTC().Format(time.RFC1123))
	c.sendNumeric(numeric.RPL_MYINFO, c.serverName, c.versionOrDefault(), "aiwroOs", "beI,k,l,imnpst")
	c.sendNumeric(numeric.RPL_ISUPPORT,
		"CASEMAPPING=ascii",
		"CHANMODES=beI,k,l,imnpst",
		"CHANTYPES=#&",
		"PREFIX=(ov)@+",
		"NICKLEN="+strconv.Itoa(validate.MaxNickLength),
		"CHANNELLEN="+strconv.Itoa(validate.MaxChannelLength),
		"TOPICLEN="+strconv.Itoa(validate.MaxTopicLength),
		"are supported by this server",
	)

	if len(c.motd) == 0 {
		c.sendNumeric(numeric.ERR_NOMOTD, "MOTD File is missing")
	} else {
		c.sendNumeric(numeric.RPL_MOTDSTART, "- "+c.serverName+" Message of the day -")
		for _, line := range c.motd {
			c.sendNumeric(numeric.RPL_MOTD, "- "+line)
		}
		c.sendNumeric(numeric.RPL_ENDOFMOTD, "End of /MOTD command")
	}

	c.log.WithField("nick", nick).Info("connection registered")
}

func (c *Conn) versionOrDefault() string {
	if c.version == "" {
		return "relayd"
	}
	return c.version
}

func (c *Conn) displayNick() string {
	n := c.Nick()
	if n == "" {
		return "*"
	}
	return n
}
