package roulette

import (
	"fmt"
	"strings"
)

func (t *Turn) narrate() string {
	if t.Shot == nil {
		if t.Answered {
			return ""
		}
		if !t.ShooterAlive {
			return ""
		}
		return fmt.Sprintf("⏰ %s hesitates and passes the turn.", t.Shooter.Name)
	}
	return t.Shot.narrate()
}

func (sh *Shot) narrate() string {
	var b strings.Builder

	if sh.Redirected {
		fmt.Fprintf(&b, "🃏 %s redirects the shot to %s!\n", sh.OriginalTarget.Name, sh.Target.Name)
	}
	if sh.Void {
		fmt.Fprintf(&b, "💨 %s lowers the gun, the target is gone.", sh.Shooter.Name)
		return b.String()
	}
	if sh.BonusLoaded > 0 {
		fmt.Fprintf(&b, "🔸 %s slips %d extra bullet(s) into the cylinder.\n", sh.Shooter.Name, sh.BonusLoaded)
	}

	fmt.Fprintf(&b, "🔫 %s aims at %s... ", sh.Shooter.Name, sh.Target.Name)
	switch {
	case !sh.Lethal:
		b.WriteString("*click*. Empty chamber!")
	case sh.InstantKill:
		b.WriteString("🪓 the Executioner strikes!")
	default:
		b.WriteString("💥 BANG!")
	}

	if sh.VestFailed {
		b.WriteString("\n🦺 The vest tears apart without stopping the bullet.")
	}
	switch sh.Absorbed {
	case ProtectionRole:
		fmt.Fprintf(&b, "\n🛡 %s's guard holds. Blocked!", sh.Target.Name)
	case ProtectionVest:
		fmt.Fprintf(&b, "\n🦺 %s's vest absorbs the hit!", sh.Target.Name)
	case ProtectionExtra:
		fmt.Fprintf(&b, "\n❤️ %s burns an extra life and stands back up!", sh.Target.Name)
	}

	if sh.Eliminated {
		fmt.Fprintf(&b, "\n☠️ %s is eliminated.", sh.Target.Name)
	}
	if sh.Lifesteal {
		fmt.Fprintf(&b, "\n🧛 %s drains an extra life.", sh.Shooter.Name)
	}
	if sh.SuddenDeath != "" {
		b.WriteString("\n" + sh.SuddenDeath)
	}
	return b.String()
}

func resultText(winner *Participant, stalled bool, rounds int, payouts []Payout) string {
	var b strings.Builder
	b.WriteString("🏁 Game over\n━━━━━━━━━━━━━━━\n")

	switch {
	case stalled:
		b.WriteString("😴 Nobody is pulling the trigger. The table closes and all stakes are refunded.\n")
	case winner == nil:
		b.WriteString("☠️ Nobody survived. The pot and all bets are forfeited.\n")
	default:
		fmt.Fprintf(&b, "🏆 %s survives %d round(s)!\n", winner.Name, rounds)
	}

	if len(payouts) > 0 {
		b.WriteString("━━━━━━━━━━━━━━━\n")
		for _, p := range payouts {
			switch p.Kind {
			case PayoutPot:
				fmt.Fprintf(&b, "💰 %s takes the pot: +%d\n", p.Name, p.Amount)
			case PayoutBet:
				fmt.Fprintf(&b, "🎲 %s wins a bet: +%d\n", p.Name, p.Amount)
			case PayoutRefund:
				fmt.Fprintf(&b, "↩️ %s refunded: +%d\n", p.Name, p.Amount)
			}
		}
	}
	b.WriteString("━━━━━━━━━━━━━━━")
	return b.String()
}
