// internal/bot/commander.go
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"clicker-ledger/internal/domain"
	"clicker-ledger/internal/service"
	"clicker-ledger/internal/util"
)

// Command names understood by the bot. They double as callback data.
const (
	CommandStart       = "start"
	CommandHelp        = "help"
	CommandStats       = "stats"
	CommandLeaderboard = "leaderboard"
	CommandWithdraw    = "withdraw"
)

// Request is a transport-neutral chat interaction.
type Request struct {
	UserID    string
	FirstName string
	Username  string
	IsPremium bool
	Command   string   // Without the leading slash; empty for free text
	Args      []string // Whitespace separated words after the command
}

// Button is one inline keyboard button. Exactly one of URL or Data is set.
type Button struct {
	Text string
	URL  string // Opens the web app
	Data string // Routed back as a command
}

// Reply is what the bot sends back.
type Reply struct {
	Text     string
	Keyboard [][]Button
}

// Commander turns chat requests into replies, reading and mutating the
// ledger through the service.
type Commander struct {
	ledger      service.LedgerService
	frontendURL string
	logger      *slog.Logger
}

// NewCommander creates a new Commander.
func NewCommander(ledger service.LedgerService, frontendURL string, logger *slog.Logger) *Commander {
	return &Commander{
		ledger:      ledger,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// Handle dispatches req to its command.
func (c *Commander) Handle(ctx context.Context, req Request) Reply {
	switch req.Command {
	case CommandStart:
		return c.start(ctx, req)
	case CommandHelp:
		return Reply{Text: helpText}
	case CommandStats:
		return c.stats(ctx, req)
	case CommandLeaderboard:
		return c.leaderboard(ctx)
	case CommandWithdraw:
		return c.withdraw(ctx, req)
	default:
		return Reply{Text: fmt.Sprintf(fallbackText, displayName(req.FirstName))}
	}
}

// ParseCommand splits "/cmd@botname arg..." into the command and its args.
// Text that does not start with a slash yields an empty command.
func ParseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(cmd, '@'); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:]
}

func (c *Commander) start(ctx context.Context, req Request) Reply {
	_, err := c.ledger.FetchOrCreate(ctx, req.UserID, domain.Profile{
		FirstName: req.FirstName,
		Username:  req.Username,
	})
	if err != nil {
		return c.failure(req, err)
	}
	return Reply{
		Text:     fmt.Sprintf(welcomeText, displayName(req.FirstName), domain.ClickReward),
		Keyboard: c.mainKeyboard(),
	}
}

func (c *Commander) stats(ctx context.Context, req Request) Reply {
	account, err := c.ledger.GetStats(ctx, req.UserID)
	if err != nil {
		return c.failure(req, err)
	}
	kind := "Regular"
	if req.IsPremium {
		kind = "Premium"
	}
	return Reply{Text: fmt.Sprintf(
		"Your Statistics\n\nName: %s\nID: %s\nType: %s\n\nTotal clicks: %d\nCurrent balance: %d coins\nPlaying since: %s",
		account.FirstName, account.UserID, kind,
		account.Clicks, account.Balance,
		account.CreatedAt.Format("2006-01-02"),
	)}
}

func (c *Commander) leaderboard(ctx context.Context) Reply {
	accounts, err := c.ledger.Leaderboard(ctx, domain.DefaultLeaderboardLimit)
	if err != nil {
		return c.failure(Request{}, err)
	}
	if len(accounts) == 0 {
		return Reply{Text: "Leaderboard\n\nNo players yet. Be the first!"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Leaderboard\n\nTop %d Players by Balance:\n", len(accounts))
	for i, a := range accounts {
		fmt.Fprintf(&b, "\n%d. %s (@%s) - %d coins, %d clicks", i+1, a.FirstName, a.Username, a.Balance, a.Clicks)
	}
	return Reply{Text: b.String()}
}

func (c *Commander) withdraw(ctx context.Context, req Request) Reply {
	var amount int64
	if len(req.Args) > 0 {
		n, err := strconv.ParseInt(req.Args[0], 10, 64)
		if err != nil || n <= 0 {
			return Reply{Text: "Usage: /withdraw [amount]\nThe amount must be a positive whole number of coins."}
		}
		amount = n
	}

	res, err := c.ledger.Withdraw(ctx, req.UserID, amount)
	if err != nil {
		return c.failure(req, err)
	}
	return Reply{Text: fmt.Sprintf("Withdrawal of %d coins completed.\nRemaining balance: %d coins", res.Amount, res.Balance)}
}

// failure renders a ledger error as a chat reply.
func (c *Commander) failure(req Request, err error) Reply {
	switch {
	case util.IsError(err, util.ErrNotFound):
		return Reply{Text: "You have no account yet. Send /start to create one."}
	case util.IsError(err, util.ErrInsufficientFunds):
		return Reply{Text: "Insufficient balance. Keep clicking to earn more coins!"}
	case util.IsError(err, util.ErrInvalidInput):
		return Reply{Text: "Invalid request: " + err.Error()}
	default:
		c.logger.Error("Bot command failed", "command", req.Command, "user_id", req.UserID, "error", err)
		return Reply{Text: "Something went wrong. Please try again later."}
	}
}

func (c *Commander) mainKeyboard() [][]Button {
	return [][]Button{
		{{Text: "Play Game", URL: c.frontendURL}},
		{{Text: "Help", Data: CommandHelp}, {Text: "Stats", Data: CommandStats}},
		{{Text: "Leaderboard", Data: CommandLeaderboard}, {Text: "Withdraw", Data: CommandWithdraw}},
	}
}

func displayName(firstName string) string {
	if firstName == "" {
		return domain.DefaultFirstName
	}
	return firstName
}

const welcomeText = `Welcome %s!

Tap the button below to play the clicker game and earn coins!

Earn %d coins per click and compete on the leaderboard.`

const helpText = `Game Instructions

How to Play:
1. Tap the 'Play Game' button to open the mini app
2. Click the button as many times as you can
3. Earn 10 coins per click
4. Build your balance and compete with others
5. Withdraw your earnings anytime

Bot Commands:
/start - Open the game
/help - This message
/stats - Your statistics
/leaderboard - Top 10 players
/withdraw [amount] - Withdraw coins (default 100)`

const fallbackText = `Hi %s!

I'm your clicker game bot. Available commands:

/start - Play the game
/help - Game instructions
/stats - Your statistics
/leaderboard - Top players
/withdraw - Withdraw coins

Tap the 'Play Game' button to start earning coins!`
