package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recurring-planner/internal/analytics"
	"recurring-planner/internal/calendar"
	"recurring-planner/internal/service"
)

const cbCompletePrefix = "complete:"

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if msg.IsCommand() {
		b.log.Info().Int64("telegram_id", msg.From.ID).Str("command", msg.Command()).Msg("command received")
		if msg.Command() != "cancel" {
			b.clearDraft(msg.From.ID)
		}
		return b.handleCommand(ctx, msg)
	}
	if d := b.draft(msg.From.ID); d != nil {
		return b.handleDraft(ctx, msg, d)
	}
	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}
	return b.sendText(msg.Chat.ID, "I did not get that. Try /today or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "add":
		return b.handleAdd(ctx, msg)
	case "cancel":
		return b.handleCancel(msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "today":
		return b.handleToday(ctx, msg)
	case "done":
		return b.handleDone(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "streak":
		return b.handleStreak(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelAdd:
		return true, b.handleAdd(ctx, msg)
	case menuLabelToday:
		return true, b.handleToday(ctx, msg)
	case menuLabelStats:
		return true, b.handleStats(ctx, msg)
	case menuLabelCategories:
		return true, b.handleCategories(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	}
	return false, nil
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your recurring tasks coming and tell you how you are doing.</b>\n\n%s",
		html.EscapeString(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

const helpText = "Commands:\n" +
	"• /add — new task, one-off or recurring\n" +
	"• /today — today's tasks with complete buttons\n" +
	"• /done &lt;id&gt; — mark a task completed\n" +
	"• /delete &lt;id&gt; — remove a task after confirmation\n" +
	"• /cancel — abandon the task being added\n" +
	"• /stats [daily|weekly|monthly|overall] — completion analytics\n" +
	"• /streak &lt;title&gt; — current and best streak of a recurring task\n" +
	"• /categories — labels in use\n" +
	"• /report — today's summary\n" +
	"• /help — this list"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleToday(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	now := b.now()
	tasks, err := b.svc.Tasks.ListToday(ctx, user.ID, now)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load tasks: %s", html.EscapeString(err.Error())))
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "Nothing scheduled for today.")
	}

	today := calendar.Day(now)
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Today, %s</b>\n\n", now.Format("Mon 02 Jan")))

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, today))
		if task.IsCompleted() {
			continue
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ #%d · %s", task.ID, shortTitle(task.Title, 24)),
				fmt.Sprintf("%s%d", cbCompletePrefix, task.ID),
			),
		))
	}
	return b.sendWithInline(msg.Chat.ID, strings.TrimSpace(builder.String()), buttons)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give me the task id: /done 12")
	}
	taskID, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}
	return b.completeTask(ctx, msg.Chat.ID, msg.From, uint(taskID))
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	res, err := b.svc.Tasks.CompleteTask(ctx, user.ID, taskID, nil, b.now())
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}

	text := fmt.Sprintf("✅ «%s» is done.", html.EscapeString(res.Task.Title))
	if res.Next != nil {
		text += fmt.Sprintf("\n♻️ Next one is on %s.", calendar.Key(res.Next.Date))
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	arg := ""
	if msg.IsCommand() {
		arg = msg.CommandArguments()
	}
	period, err := analytics.ParsePeriod(arg)
	if err != nil || period == analytics.PeriodCustom {
		return b.sendText(msg.Chat.ID, "Period must be one of daily, weekly, monthly, overall.")
	}

	snap, err := b.svc.Analytics.Analytics(ctx, user.ID, service.AnalyticsQuery{Period: period}, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build stats: %s", html.EscapeString(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatSnapshot(snap))
}

func (b *Bot) handleStreak(ctx context.Context, msg *tgbotapi.Message) error {
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		return b.sendText(msg.Chat.ID, "Give me the task title: /streak Morning run")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	streak, err := b.svc.Analytics.TitleStreak(ctx, user.ID, title, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔥 <b>%s</b>\nCurrent streak: %d day(s)\nBest streak: %d day(s)",
		html.EscapeString(title), streak.Current, streak.Best))
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	categories, err := b.svc.Categories.List(ctx, user)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet.")
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, c := range categories {
		sb.WriteString(fmt.Sprintf("• %s (%d)\n", html.EscapeString(c.Label), c.Count))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.svc.Reminders.DailySummary(ctx, *user, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", html.EscapeString(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	b.log.Info().Int64("telegram_id", cb.From.ID).Str("data", cb.Data).Msg("callback received")

	var prefix string
	switch {
	case strings.HasPrefix(cb.Data, cbCompletePrefix):
		prefix = cbCompletePrefix
	case strings.HasPrefix(cb.Data, cbDeletePrefix):
		prefix = cbDeletePrefix
	case strings.HasPrefix(cb.Data, cbKeepPrefix):
		b.ack(cb, "Kept")
		return nil
	default:
		b.ack(cb, "")
		return nil
	}

	taskID, err := parseTaskID(cb.Data, prefix)
	if err != nil {
		b.ack(cb, "Bad button")
		return nil
	}
	b.ack(cb, "")
	if prefix == cbDeletePrefix {
		return b.deleteTask(ctx, cb.Message.Chat.ID, cb.From, taskID)
	}
	return b.completeTask(ctx, cb.Message.Chat.ID, cb.From, taskID)
}

func formatSnapshot(s analytics.Snapshot) string {
	var sb strings.Builder
	last := calendar.AddDays(s.Window.End, -1)
	sb.WriteString(fmt.Sprintf("📊 <b>%s stats</b> %s — %s\n", periodLabel(s.Period), calendar.Key(s.Window.Start), calendar.Key(last)))
	sb.WriteString(fmt.Sprintf("Done %d of %d (%.2f%%)\n", s.Summary.Completed, s.Summary.Total, s.Summary.CompletionRate))
	if s.Summary.MostProductiveWeekday != "" {
		sb.WriteString(fmt.Sprintf("Best day: %s\n", s.Summary.MostProductiveWeekday))
	}
	if s.Comparison.PreviousTotal > 0 {
		sb.WriteString(fmt.Sprintf("Change vs previous: %+.2f pts\n", s.Comparison.CompletionRateChange))
	}
	sb.WriteString(fmt.Sprintf("Perfect days in a row: %d\n", s.PerfectDays.Current))
	sb.WriteString(fmt.Sprintf("\nWorkload: <b>%s</b> (score %d)\n", s.Burnout.Level, s.Burnout.Score))
	for _, r := range s.Burnout.Recommendations {
		sb.WriteString("• " + html.EscapeString(r) + "\n")
	}
	if s.Truncated {
		sb.WriteString("\n<i>Only the most recent records were counted.</i>")
	}
	return strings.TrimSpace(sb.String())
}

func periodLabel(p analytics.Period) string {
	name := string(p)
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
