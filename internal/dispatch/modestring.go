package dispatch

import "github.com/relayd/relayd/internal/chanop"

// modeParamOnSet/modeParamOnUnset classify which channel mode letters
// consume a parameter on which polarity (§4.6's mode table). Letters
// absent from both need no parameter in either polarity.
var modeParamOnSet = map[byte]bool{
	'o': true, 'v': true, 'k': true, 'l': true, 'b': true, 'e': true, 'I': true,
}
var modeParamOnUnset = map[byte]bool{
	'o': true, 'v': true, 'k': true, 'b': true, 'e': true, 'I': true,
}

// parseModeString turns a MODE command's mode string and trailing
// parameters into a list of ModeChange items. A mode string with no
// leading '+'/'-' is a bare list/state query (b/e/I with no change, or
// a channel-modes query): each character becomes its own query-only
// ModeChange and isQuery is true.
func parseModeString(modestr string, params []string) (changes []chanop.ModeChange, isQuery bool) {
	if modestr == "" {
		return nil, true
	}
	if modestr[0] != '+' && modestr[0] != '-' {
		for i := 0; i < len(modestr); i++ {
			changes = append(changes, chanop.ModeChange{Letter: modestr[i]})
		}
		return changes, true
	}

	add := true
	pi := 0
	for i := 0; i < len(modestr); i++ {
		c := modestr[i]
		switch c {
		case '+':
			add = true
		case '-':
			add = false
		default:
			needsParam := (add && modeParamOnSet[c]) || (!add && modeParamOnUnset[c])
			mc := chanop.ModeChange{Add: add, Letter: c}
			if needsParam {
				if pi < len(params) {
					mc.Param = params[pi]
					pi++
				}
			}
			changes = append(changes, mc)
		}
	}
	return changes, false
}
