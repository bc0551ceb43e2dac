package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"gambling-bot/internal/core/domain"
	"gambling-bot/internal/core/ports"
	"gambling-bot/pkg/apperror"

	"github.com/rs/zerolog"
)

// RandomCoin is the production ports.CoinFlipper: a fair 50/50 draw.
type RandomCoin struct{}

// Win reports heads.
func (RandomCoin) Win() bool {
	return rand.IntN(2) == 0
}

// CommandConfig tunes the dispatcher.
type CommandConfig struct {
	Prefix         string
	CooldownLimit  int64 // gambles per window per user; 0 disables
	CooldownWindow time.Duration
}

// command is one entry of the dispatch table.
type command struct {
	name       string
	usage      string // arguments only, e.g. "<amount> <money_type>"
	summary    string
	capability domain.Capability
	args       int
	run        func(ctx context.Context, inv ports.Invocation) (ports.Reply, error)
}

// CommandServiceImpl implements ports.Dispatcher and the command handlers.
//
// The capability check and argument count check happen here, before any
// handler body runs; handlers only validate values and touch the ledger.
type CommandServiceImpl struct {
	ledger   ports.LedgerService
	notifier ports.AdminNotifier
	coin     ports.CoinFlipper
	audit    ports.AuditService  // nil = no audit trail
	cooldown ports.CooldownStore // nil = no gamble cooldown
	cfg      CommandConfig
	log      zerolog.Logger

	commands map[string]*command
	order    []*command
}

// NewCommandService wires the dispatch table.
func NewCommandService(
	ledger ports.LedgerService,
	notifier ports.AdminNotifier,
	coin ports.CoinFlipper,
	audit ports.AuditService,
	cooldown ports.CooldownStore,
	cfg CommandConfig,
	log zerolog.Logger,
) *CommandServiceImpl {
	if cfg.Prefix == "" {
		cfg.Prefix = "/"
	}
	s := &CommandServiceImpl{
		ledger:   ledger,
		notifier: notifier,
		coin:     coin,
		audit:    audit,
		cooldown: cooldown,
		cfg:      cfg,
		log:      log,
		commands: make(map[string]*command),
	}

	s.register(&command{name: "balance", summary: "Check your wallet.", capability: domain.CapabilityAnyone, run: s.balance})
	s.register(&command{name: "gamble", usage: "<amount> <money_type>", summary: "Gamble an amount using specified money type.", capability: domain.CapabilityAnyone, args: 2, run: s.gamble})
	s.register(&command{name: "withdraw", usage: "<amount> <money_type>", summary: "Withdraw money and notify admins.", capability: domain.CapabilityAnyone, args: 2, run: s.withdraw})
	s.register(&command{name: "addmoney", usage: "<amount> <user> <money_type>", summary: "Admins only: add to a user's balance.", capability: domain.CapabilityAdmin, args: 3, run: s.addMoney})
	s.register(&command{name: "reducemoney", usage: "<amount> <user> <money_type>", summary: "Admins only: remove from a user's balance.", capability: domain.CapabilityAdmin, args: 3, run: s.reduceMoney})
	s.register(&command{name: "createmoney", usage: "<money_type>", summary: "Owner only: add a money type.", capability: domain.CapabilityOwner, args: 1, run: s.createMoney})
	s.register(&command{name: "deletemoney", usage: "<money_type>", summary: "Owner only: remove a money type.", capability: domain.CapabilityOwner, args: 1, run: s.deleteMoney})
	s.register(&command{name: "help", summary: "Show this message.", capability: domain.CapabilityAnyone, run: s.help})

	return s
}

func (s *CommandServiceImpl) register(c *command) {
	s.commands[c.name] = c
	s.order = append(s.order, c)
}

// Prefix returns the trigger prefix, e.g. "/".
func (s *CommandServiceImpl) Prefix() string {
	return s.cfg.Prefix
}

// Dispatch runs inv and converts every failure into a rejection reply.
func (s *CommandServiceImpl) Dispatch(ctx context.Context, inv ports.Invocation) (ports.Reply, bool) {
	cmd, ok := s.commands[strings.ToLower(inv.Name)]
	if !ok {
		return ports.Reply{}, false
	}

	log := s.log.With().
		Str("command", cmd.name).
		Str("user_id", inv.Caller.UserID).
		Str("guild_id", inv.Caller.GuildID).
		Logger()

	reply, err := s.run(ctx, cmd, inv)
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.InternalError(err)
		}
		switch {
		case appErr.Err != nil:
			log.Error().Err(appErr.Err).Str("code", appErr.Code).Msg("command failed")
		case apperror.IsUnauthorized(appErr):
			log.Warn().Str("code", appErr.Code).Msg("command rejected: unauthorized")
		default:
			log.Debug().Str("code", appErr.Code).Msg("command rejected")
		}
		return rejection(appErr), true
	}

	log.Debug().Msg("command handled")
	return reply, true
}

// run gates cmd on capability and argument count, then executes it.
func (s *CommandServiceImpl) run(ctx context.Context, cmd *command, inv ports.Invocation) (ports.Reply, error) {
	if err := authorize(cmd.capability, inv.Caller); err != nil {
		return ports.Reply{}, err
	}
	if len(inv.Args) < cmd.args {
		return ports.Reply{}, apperror.ErrUsage(s.usage(cmd))
	}
	return cmd.run(ctx, inv)
}

// authorize is the single permission gate for every command.
func authorize(capability domain.Capability, caller domain.Caller) error {
	if caller.Can(capability) {
		return nil
	}
	if capability == domain.CapabilityOwner {
		return apperror.ErrOwnerOnly()
	}
	return apperror.ErrAdminsOnly()
}

func rejection(err *apperror.AppError) ports.Reply {
	return ports.Reply{Text: "❌ " + err.Message}
}

func (s *CommandServiceImpl) usage(c *command) string {
	if c.usage == "" {
		return s.cfg.Prefix + c.name
	}
	return s.cfg.Prefix + c.name + " " + c.usage
}

// --- handlers ---

func (s *CommandServiceImpl) balance(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	w, err := s.ledger.EnsureWallet(ctx, inv.Caller.UserID)
	if err != nil {
		return ports.Reply{}, err
	}

	reply := ports.Reply{
		Title:   fmt.Sprintf("%s's Wallet", inv.Caller.DisplayName),
		Success: true,
	}
	for _, c := range walletOrder(s.ledger.Currencies(), w) {
		reply.Fields = append(reply.Fields, ports.ReplyField{
			Name:   capitalize(c),
			Value:  fmt.Sprintf("%d %s", w.Balances[c], currencyEmoji(c)),
			Inline: true,
		})
	}
	return reply, nil
}

func (s *CommandServiceImpl) gamble(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	caller := inv.Caller
	if _, err := s.ledger.EnsureWallet(ctx, caller.UserID); err != nil {
		return ports.Reply{}, err
	}
	amount, currency, err := s.amountAndCurrency(inv.Args[0], inv.Args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	if amount <= 0 {
		return ports.Reply{}, apperror.ErrInvalidAmount()
	}
	bal, err := s.ledger.Balance(ctx, caller.UserID, currency)
	if err != nil {
		return ports.Reply{}, err
	}
	if bal < amount {
		return ports.Reply{}, apperror.ErrInsufficientFunds()
	}
	if err := s.checkCooldown(ctx, "gamble:"+caller.UserID); err != nil {
		return ports.Reply{}, err
	}

	won := s.coin.Win()
	balance, err := s.ledger.Settle(ctx, caller.UserID, currency, amount, won)
	if err != nil {
		return ports.Reply{}, err
	}

	action := domain.AuditActionGambleLoss
	text := fmt.Sprintf("💀 You lost %d %s.", amount, currency)
	if won {
		action = domain.AuditActionGambleWin
		text = fmt.Sprintf("🎉 You won %d %s!", amount, currency)
	}
	s.record(ctx, domain.NewAuditLog(action, caller, caller.UserID, currency, amount).WithBalance(balance))

	return ports.Reply{Text: text, Success: won}, nil
}

func (s *CommandServiceImpl) withdraw(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	caller := inv.Caller
	if _, err := s.ledger.EnsureWallet(ctx, caller.UserID); err != nil {
		return ports.Reply{}, err
	}
	amount, currency, err := s.amountAndCurrency(inv.Args[0], inv.Args[1])
	if err != nil {
		return ports.Reply{}, err
	}
	if amount <= 0 {
		return ports.Reply{}, apperror.ErrInvalidAmount()
	}

	balance, err := s.ledger.Withdraw(ctx, caller.UserID, currency, amount)
	if err != nil {
		return ports.Reply{}, err
	}
	s.record(ctx, domain.NewAuditLog(domain.AuditActionWithdraw, caller, caller.UserID, currency, amount).WithBalance(balance))

	if s.notifier != nil && caller.GuildID != "" {
		s.notifier.NotifyAdmins(ctx, caller.GuildID,
			fmt.Sprintf("📤 %s wants to withdraw %d %s.", caller.DisplayName, amount, currency))
	}

	return ports.Reply{
		Text:    fmt.Sprintf("✅ Withdraw request sent for %d %s.", amount, currency),
		Success: true,
	}, nil
}

func (s *CommandServiceImpl) addMoney(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	return s.adjust(ctx, inv, 1)
}

func (s *CommandServiceImpl) reduceMoney(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	return s.adjust(ctx, inv, -1)
}

// adjust handles addmoney (sign 1) and reducemoney (sign -1). The amount is
// not checked: it may be zero or negative and may push the balance below zero.
func (s *CommandServiceImpl) adjust(ctx context.Context, inv ports.Invocation, sign int64) (ports.Reply, error) {
	cmd := "addmoney"
	if sign < 0 {
		cmd = "reducemoney"
	}
	amount, err := strconv.ParseInt(inv.Args[0], 10, 64)
	if err != nil {
		return ports.Reply{}, apperror.ErrUsage(s.usage(s.commands[cmd]))
	}
	target, ok := inv.Targets[inv.Args[1]]
	if !ok || target.UserID == "" {
		return ports.Reply{}, apperror.ErrUsage(s.usage(s.commands[cmd]))
	}
	if _, err := s.ledger.EnsureWallet(ctx, target.UserID); err != nil {
		return ports.Reply{}, err
	}
	currency := domain.NormalizeCurrency(inv.Args[2])
	if !contains(s.ledger.Currencies(), currency) {
		return ports.Reply{}, apperror.ErrUnknownCurrency()
	}

	if sign < 0 && amount == math.MinInt64 {
		return ports.Reply{}, apperror.ErrInvalidAmount()
	}
	balance, err := s.ledger.Adjust(ctx, target.UserID, currency, sign*amount)
	if err != nil {
		return ports.Reply{}, err
	}

	name := target.DisplayName
	if name == "" {
		name = target.UserID
	}
	if sign > 0 {
		s.record(ctx, domain.NewAuditLog(domain.AuditActionAddMoney, inv.Caller, target.UserID, currency, amount).WithBalance(balance))
		return ports.Reply{Text: fmt.Sprintf("✅ Added %d %s to %s.", amount, currency, name), Success: true}, nil
	}
	s.record(ctx, domain.NewAuditLog(domain.AuditActionReduceMoney, inv.Caller, target.UserID, currency, amount).WithBalance(balance))
	return ports.Reply{Text: fmt.Sprintf("❌ Removed %d %s from %s.", amount, currency, name), Success: true}, nil
}

func (s *CommandServiceImpl) createMoney(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	currency := domain.NormalizeCurrency(inv.Args[0])
	if err := s.ledger.CreateCurrency(ctx, currency); err != nil {
		return ports.Reply{}, err
	}
	s.record(ctx, domain.NewAuditLog(domain.AuditActionCreateCurrency, inv.Caller, "", currency, 0))
	return ports.Reply{Text: fmt.Sprintf("✅ Money type '%s' created.", currency), Success: true}, nil
}

func (s *CommandServiceImpl) deleteMoney(ctx context.Context, inv ports.Invocation) (ports.Reply, error) {
	currency := domain.NormalizeCurrency(inv.Args[0])
	if err := s.ledger.DeleteCurrency(ctx, currency); err != nil {
		return ports.Reply{}, err
	}
	s.record(ctx, domain.NewAuditLog(domain.AuditActionDeleteCurrency, inv.Caller, "", currency, 0))
	return ports.Reply{Text: fmt.Sprintf("🗑️ Money type '%s' deleted.", currency), Success: true}, nil
}

func (s *CommandServiceImpl) help(_ context.Context, inv ports.Invocation) (ports.Reply, error) {
	reply := ports.Reply{Title: "Gambling Bot Help", Success: true}
	for _, c := range s.order {
		if !inv.Caller.Can(c.capability) {
			continue
		}
		reply.Fields = append(reply.Fields, ports.ReplyField{Name: s.usage(c), Value: c.summary})
	}
	return reply, nil
}

// --- helpers ---

func (s *CommandServiceImpl) amountAndCurrency(rawAmount, rawCurrency string) (int64, string, error) {
	currency := domain.NormalizeCurrency(rawCurrency)
	if !contains(s.ledger.Currencies(), currency) {
		return 0, "", apperror.ErrUnknownCurrency()
	}
	amount, err := strconv.ParseInt(rawAmount, 10, 64)
	if err != nil {
		return 0, "", apperror.ErrInvalidAmount()
	}
	return amount, currency, nil
}

func (s *CommandServiceImpl) checkCooldown(ctx context.Context, key string) error {
	if s.cooldown == nil || s.cfg.CooldownLimit <= 0 {
		return nil
	}
	res, err := s.cooldown.Allow(ctx, key, s.cfg.CooldownLimit, s.cfg.CooldownWindow)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("cooldown store error, allowing command")
		return nil
	}
	if !res.Allowed {
		return apperror.ErrCooldown()
	}
	return nil
}

func (s *CommandServiceImpl) record(ctx context.Context, entry *domain.AuditLog) {
	if s.audit != nil {
		s.audit.Log(ctx, entry)
	}
}

// walletOrder lists registry currencies first, then any stale entries alphabetically.
func walletOrder(registry []string, w *domain.Wallet) []string {
	out := make([]string, 0, len(w.Balances))
	seen := make(map[string]bool, len(registry))
	for _, c := range registry {
		if _, ok := w.Balances[c]; ok {
			out = append(out, c)
			seen[c] = true
		}
	}
	var stale []string
	for c := range w.Balances {
		if !seen[c] {
			stale = append(stale, c)
		}
	}
	sort.Strings(stale)
	return append(out, stale...)
}

func currencyEmoji(currency string) string {
	if strings.Contains(currency, "1") {
		return "🪙"
	}
	return "💎"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
