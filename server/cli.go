package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"hu-holdem/server/engine"
	"hu-holdem/server/session"
)

// playCLI runs one session in the terminal until the game is over or the
// player quits.
func playCLI(ctx context.Context, s *session.Session) error {
	pterm.DefaultHeader.WithFullWidth().Println("Heads-up No-Limit Hold'em")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := agentTurns(ctx, s); err != nil {
			return err
		}

		v := s.View()
		printTable(v)
		if v.HandOver {
			printResult(v)
			if v.GameOver {
				winner := "You"
				if v.PlayerStack <= 0 {
					winner = "The AI"
				}
				pterm.Info.Printfln("Game over. %s won the match.", winner)
				printStats(s.Stats())
				return nil
			}
			more, _ := pterm.DefaultInteractiveConfirm.WithDefaultText("Deal the next hand?").WithDefaultValue(true).Show()
			if !more {
				printStats(s.Stats())
				return nil
			}
			if err := s.NextHand(); err != nil {
				return err
			}
			continue
		}

		a, quit := readAction(v.Options)
		if quit {
			return nil
		}
		if err := s.PlayerAct(a); err != nil {
			pterm.Error.Printfln("Invalid action: %v", err)
		}
	}
}

func agentTurns(ctx context.Context, s *session.Session) error {
	if v := s.View(); v.HandOver || v.Turn != string(engine.AI) {
		return nil
	}
	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("AI is thinking ...")
	err := s.AdvanceAgent(ctx)
	if spinner != nil {
		_ = spinner.Stop()
	}
	return err
}

func printTable(v session.View) {
	board := "-"
	if len(v.Board) > 0 {
		board = strings.Join(v.Board, " ")
	}
	aiHole := "?? ??"
	if len(v.AIHole) > 0 {
		aiHole = strings.Join(v.AIHole, " ")
	}

	you := pterm.DefaultBox.WithTitle(pterm.LightCyan("You (" + v.PlayerPos + ")")).Sprintf(
		"%s\nstack %d\nbet %d", pterm.BgGreen.Sprint(strings.Join(v.PlayerHole, " ")), v.PlayerStack, v.PlayerBet)
	ai := pterm.DefaultBox.WithTitle(pterm.LightRed("AI (" + v.AIPos + ")")).Sprintf(
		"%s\nstack %d\nbet %d", aiHole, v.AIStack, v.AIBet)
	table := pterm.DefaultBox.WithTitle(pterm.LightYellow(fmt.Sprintf("Hand %d | %s", v.HandNo, v.Street))).Sprintf(
		"%s\npot %d", board, v.Pot)

	_ = pterm.DefaultPanel.WithPanels(pterm.Panels{
		{{Data: you}, {Data: table}, {Data: ai}},
	}).Render()

	start := max(0, len(v.Log)-6)
	for _, line := range v.Log[start:] {
		pterm.Println(pterm.Gray(line))
	}
}

func printResult(v session.View) {
	switch {
	case v.Net > 0:
		pterm.Success.Printfln("You won %d", v.Net)
	case v.Net < 0:
		pterm.Warning.Printfln("You lost %d", -v.Net)
	default:
		pterm.Info.Println("Split pot")
	}
	if sd := v.Showdown; sd != nil {
		pterm.Info.Printfln("You: %s | AI: %s", sd.PlayerRank.Name(), sd.AIRank.Name())
	}
}

func printStats(st session.Stats) {
	p, a := st.Player.Overall, st.AI.Overall
	pct := func(n, d int) string {
		if d == 0 {
			return "-"
		}
		return fmt.Sprintf("%.0f%%", 100*float64(n)/float64(d))
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"", "Hands", "Won", "VPIP", "PFR", "AF", "WTSD", "Net"},
		{"You", strconv.Itoa(p.Hands), strconv.Itoa(p.Wins), pct(p.VPIP, p.Hands), pct(p.PFR, p.Hands),
			fmt.Sprintf("%.1f", p.AF()), pct(p.WTSD, p.SawFlop), strconv.Itoa(p.NetChips)},
		{"AI", strconv.Itoa(a.Hands), strconv.Itoa(a.Wins), pct(a.VPIP, a.Hands), pct(a.PFR, a.Hands),
			fmt.Sprintf("%.1f", a.AF()), pct(a.WTSD, a.SawFlop), strconv.Itoa(a.NetChips)},
	}).Render()
	pterm.Info.Printfln("%.1f bb/100, win rate %.0f%%-%.0f%% (95%%)", st.PlayerBBPer100, 100*st.WinLow, 100*st.WinHigh)
}

// actionLabels lists what the player may do right now.
func actionLabels(o engine.Options) []string {
	var out []string
	if o.CanFold {
		out = append(out, "Fold")
	}
	if o.CanCheck {
		out = append(out, "Check")
	} else {
		label := fmt.Sprintf("Call %d", o.ToCall)
		if o.CallIsAllIn {
			label += " (all-in)"
		}
		out = append(out, label)
	}
	if o.CanRaise {
		verb := "Raise"
		if o.RaiseVerb == engine.Bet {
			verb = "Bet"
		}
		out = append(out, fmt.Sprintf("%s (%d-%d)", verb, o.MinTo, o.MaxTo), "All-in")
	}
	return append(out, "Quit")
}

func readAction(o engine.Options) (engine.Action, bool) {
	for {
		choice, _ := pterm.DefaultInteractiveSelect.WithDefaultText("Select your next action").WithOptions(actionLabels(o)).Show()
		switch {
		case choice == "Quit":
			return engine.Action{}, true
		case choice == "Fold":
			return engine.FoldAction(), false
		case choice == "Check":
			return engine.CheckAction(), false
		case strings.HasPrefix(choice, "Call"):
			return engine.CallAction(), false
		case choice == "All-in":
			return engine.AllInAction(), false
		case strings.HasPrefix(choice, "Bet"), strings.HasPrefix(choice, "Raise"):
			raw, _ := pterm.DefaultInteractiveTextInput.
				WithDefaultText(fmt.Sprintf("Amount to %s to", strings.ToLower(string(o.RaiseVerb)))).
				WithDefaultValue(strconv.Itoa(o.MinTo)).
				Show()
			a, err := sizedAction(o, raw)
			if err != nil {
				pterm.Error.Println(err)
				continue
			}
			return a, false
		}
	}
}

var errBadSize = errors.New("bad size")

func sizedAction(o engine.Options, raw string) (engine.Action, error) {
	to, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return engine.Action{}, fmt.Errorf("%w: %q is not a number", errBadSize, raw)
	}
	if to < o.MinTo || to > o.MaxTo {
		return engine.Action{}, fmt.Errorf("%w: %d outside %d-%d", errBadSize, to, o.MinTo, o.MaxTo)
	}
	if to == o.MaxTo {
		return engine.AllInAction(), nil
	}
	if o.RaiseVerb == engine.Bet {
		return engine.BetAction(to), nil
	}
	return engine.RaiseAction(to), nil
}
