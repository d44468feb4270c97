// Package numeric builds numeric reply messages with the server prefix,
// target nick, and canonical trailing text (§4. reply builder, §6
// "Numerics used").
package numeric

import (
	"fmt"

	"github.com/relayd/relayd/internal/wire"
)

// Code is a three-digit numeric reply code.
type Code string

const (
	RPL_WELCOME          Code = "001"
	RPL_YOURHOST         Code = "002"
	RPL_CREATED          Code = "003"
	RPL_MYINFO           Code = "004"
	RPL_ISUPPORT         Code = "005"
	RPL_UMODEIS          Code = "221"
	RPL_ADMINME          Code = "256"
	RPL_ADMINLOC1        Code = "257"
	RPL_ADMINLOC2        Code = "258"
	RPL_ADMINEMAIL       Code = "259"
	RPL_AWAY             Code = "301"
	RPL_UNAWAY           Code = "305"
	RPL_NOWAWAY          Code = "306"
	RPL_WHOISUSER        Code = "311"
	RPL_WHOISSERVER      Code = "312"
	RPL_ENDOFWHO         Code = "315"
	RPL_WHOISIDLE        Code = "317"
	RPL_ENDOFWHOIS       Code = "318"
	RPL_WHOISCHANNELS    Code = "319"
	RPL_LISTSTART        Code = "321"
	RPL_LIST             Code = "322"
	RPL_LISTEND          Code = "323"
	RPL_CHANNELMODEIS    Code = "324"
	RPL_INVITELIST       Code = "346"
	RPL_ENDOFINVITELIST  Code = "347"
	RPL_EXCEPTLIST       Code = "348"
	RPL_ENDOFEXCEPTLIST  Code = "349"
	RPL_NOTOPIC          Code = "331"
	RPL_TOPIC            Code = "332"
	RPL_TOPICWHOTIME     Code = "333"
	RPL_INVITING         Code = "341"
	RPL_WHOREPLY         Code = "352"
	RPL_NAMREPLY         Code = "353"
	RPL_ENDOFNAMES       Code = "366"
	RPL_BANLIST          Code = "367"
	RPL_ENDOFBANLIST     Code = "368"
	RPL_INFO             Code = "371"
	RPL_MOTD             Code = "372"
	RPL_ENDOFINFO        Code = "374"
	RPL_MOTDSTART        Code = "375"
	RPL_ENDOFMOTD        Code = "376"
	RPL_VERSION          Code = "351"
	RPL_TIME             Code = "391"
	RPL_ENDOFSTATS       Code = "219"
	ERR_NOSUCHNICK       Code = "401"
	ERR_NOSUCHCHANNEL    Code = "403"
	ERR_CANNOTSENDTOCHAN Code = "404"
	ERR_UNKNOWNCOMMAND   Code = "421"
	ERR_NOMOTD           Code = "422"
	ERR_ERRONEUSNICKNAME Code = "432"
	ERR_NICKNAMEINUSE    Code = "433"
	ERR_USERNOTINCHANNEL Code = "441"
	ERR_NOTONCHANNEL     Code = "442"
	ERR_USERONCHANNEL    Code = "443"
	ERR_NOTREGISTERED    Code = "451"
	ERR_NEEDMOREPARAMS   Code = "461"
	ERR_ALREADYREGISTRED Code = "462"
	ERR_CHANNELISFULL    Code = "471"
	ERR_UNKNOWNMODE      Code = "472"
	ERR_INVITEONLYCHAN   Code = "473"
	ERR_BANNEDFROMCHAN   Code = "474"
	ERR_BADCHANNELKEY    Code = "475"
	ERR_CHANOPRIVSNEEDED Code = "482"
)

// Reply builds a complete numeric Message addressed to target (the
// client's current nickname, or "*" before registration).
func Reply(serverName, target string, code Code, params ...string) wire.Message {
	return wire.Message{
		Prefix:  serverName,
		Command: string(code),
		Params:  append([]string{target}, params...),
	}
}

// Replyf is Reply with the final (trailing) parameter built by Sprintf.
func Replyf(serverName, target string, code Code, params []string, format string, args ...interface{}) wire.Message {
	all := append(append([]string{}, params...), fmt.Sprintf(format, args...))
	return Reply(serverName, target, code, all...)
}
