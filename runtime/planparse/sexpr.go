package planparse

import (
	"fmt"
	"strconv"
	"strings"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/plan"
)

// sexpr is a parsed S-expression node: either an atom (Atom != "", List ==
// nil) or a list of child nodes.
type sexpr struct {
	Atom string
	List []sexpr
}

func (n sexpr) isList() bool { return n.List != nil }

// parseSExpr implements the legacy fallback surface described in spec §4.3:
//
//	(P "<message>" <step>*)
//	(PS <actionId> <item>*)
//	(PA <name> <literal>+)
//	(PENDING <name> "<prompt>")
//	(ERROR "<reason>")
//	(EMBED <sublanguage> <sub-tree>)
func parseSExpr(content string, cat *catalog.Catalog) (*plan.Plan, error) {
	toks := tokenizeSExpr(content)
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty S-expression")
	}
	node, rest, err := readSExpr(toks)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing content after top-level S-expression")
	}
	return buildPlanFromSExpr(node, cat)
}

func buildPlanFromSExpr(node sexpr, cat *catalog.Catalog) (*plan.Plan, error) {
	if !node.isList() || len(node.List) == 0 {
		return nil, fmt.Errorf("expected (P ...) at top level")
	}
	head := node.List[0]
	switch head.Atom {
	case "P":
		if len(node.List) < 2 {
			return nil, fmt.Errorf("(P ...) requires a message")
		}
		message := unquote(node.List[1].Atom)
		var steps []plan.Step
		for _, child := range node.List[2:] {
			step, err := buildStepFromSExpr(child, cat)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
		return plan.New(message, steps), nil
	default:
		return nil, fmt.Errorf("unexpected top-level form: %s", head.Atom)
	}
}

func buildStepFromSExpr(node sexpr, cat *catalog.Catalog) (plan.Step, error) {
	if !node.isList() || len(node.List) == 0 {
		return nil, fmt.Errorf("expected a step form")
	}
	head := node.List[0]
	switch head.Atom {
	case "ERROR":
		if len(node.List) < 2 {
			return nil, fmt.Errorf("(ERROR ...) requires a reason")
		}
		return plan.ErrorStep{Reason: unquote(node.List[1].Atom)}, nil
	case "PS":
		if len(node.List) < 2 {
			return nil, fmt.Errorf("(PS ...) requires an actionId")
		}
		actionID := head.rawOrAtom(node.List[1])
		id := catalog.Ident(actionID)
		desc, ok := cat.ByID(id)
		if !ok {
			return plan.ErrorStep{Reason: fmt.Sprintf("unknown action: %s", actionID)}, nil
		}
		provided := plan.NewOrderedMap()
		explicitPending := map[string]string{}
		for _, item := range node.List[2:] {
			if !item.isList() || len(item.List) == 0 {
				continue
			}
			switch item.List[0].Atom {
			case "PA":
				if len(item.List) < 3 {
					continue
				}
				name := unquote(item.List[1].Atom)
				if len(item.List) == 3 {
					provided.Set(name, literalValue(item.List[2]))
				} else {
					var seq []any
					for _, lit := range item.List[2:] {
						seq = append(seq, literalValue(lit))
					}
					provided.Set(name, seq)
				}
			case "PENDING":
				if len(item.List) < 3 {
					continue
				}
				name := unquote(item.List[1].Atom)
				explicitPending[name] = unquote(item.List[2].Atom)
			case "EMBED":
				// EMBED passes its sub-tree through as an opaque typed
				// value for the parameter slot named by the surrounding
				// context; renderSExpr preserves the raw text so the
				// resolver's TypeFactory can re-parse it.
				if len(item.List) >= 3 {
					// Best effort: treat EMBED as providing a value under
					// its sublanguage tag name when used directly inside a
					// PS step (uncommon but schema-legal).
					name := unquote(item.List[1].Atom)
					provided.Set(name, renderSExpr(item.List[2]))
				}
			}
		}
		var pending []plan.PendingParam
		for _, p := range desc.Params {
			if _, has := provided.Get(p.Name); has {
				continue
			}
			msg, explicit := explicitPending[p.Name]
			if !explicit {
				msg = p.Description
				if msg == "" {
					msg = fmt.Sprintf("Provide %s", p.Name)
				}
			}
			pending = append(pending, plan.PendingParam{Name: p.Name, Message: msg})
		}
		if len(pending) == 0 {
			return plan.ActionStep{ActionID: id, ArgumentsByName: provided}, nil
		}
		return plan.PendingActionStep{ActionID: id, ProvidedParams: provided, PendingParams: pending}, nil
	default:
		return nil, fmt.Errorf("unexpected step form: %s", head.Atom)
	}
}

// rawOrAtom returns the unquoted text of an atom node used as a bare
// identifier (e.g., an actionId), tolerating either a bare or quoted atom.
func (sexpr) rawOrAtom(n sexpr) string { return unquote(n.Atom) }

// literalValue converts a literal atom node into a Go scalar: numbers
// become float64, "true"/"false" become bool, everything else is a string.
func literalValue(n sexpr) any {
	s := unquote(n.Atom)
	if f, err := strconv.ParseFloat(s, 64); err == nil && n.Atom == s {
		return f
	}
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	return s
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// renderSExpr re-serializes a node back to its textual S-expression form,
// used to pass an EMBED sub-tree through as an opaque string (spec §4.3
// step 5 and §9's "opaque argument values during parse").
func renderSExpr(n sexpr) string {
	if !n.isList() {
		return n.Atom
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range n.List {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(renderSExpr(c))
	}
	b.WriteByte(')')
	return b.String()
}

// tokenizeSExpr splits content into parens, a single string-literal token
// per quoted run, and atoms delimited by whitespace.
func tokenizeSExpr(content string) []string {
	var toks []string
	i := 0
	for i < len(content) {
		c := content[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"':
			j := i + 1
			for j < len(content) && content[j] != '"' {
				if content[j] == '\\' {
					j++
				}
				j++
			}
			if j < len(content) {
				j++
			}
			toks = append(toks, content[i:j])
			i = j
		default:
			j := i
			for j < len(content) && !strings.ContainsRune(" \t\n\r()", rune(content[j])) {
				j++
			}
			toks = append(toks, content[i:j])
			i = j
		}
	}
	return toks
}

// readSExpr consumes one S-expression node from toks, returning the node and
// the unconsumed remainder.
func readSExpr(toks []string) (sexpr, []string, error) {
	if len(toks) == 0 {
		return sexpr{}, nil, fmt.Errorf("unexpected end of input")
	}
	head := toks[0]
	if head == "(" {
		rest := toks[1:]
		var children []sexpr
		for {
			if len(rest) == 0 {
				return sexpr{}, nil, fmt.Errorf("unterminated list")
			}
			if rest[0] == ")" {
				return sexpr{List: children}, rest[1:], nil
			}
			var child sexpr
			var err error
			child, rest, err = readSExpr(rest)
			if err != nil {
				return sexpr{}, nil, err
			}
			children = append(children, child)
		}
	}
	if head == ")" {
		return sexpr{}, nil, fmt.Errorf("unexpected closing paren")
	}
	return sexpr{Atom: head}, toks[1:], nil
}
