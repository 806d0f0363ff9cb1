package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/service"
)

type draftStage int

const (
	stageTitle draftStage = iota
	stageCategory
	stageRepeat
	stageInterval
	stageEnd
	stageDue
)

// taskDraft collects /add answers until the task can be created.
type taskDraft struct {
	stage draftStage
	input service.TaskInput
}

func (b *Bot) draft(userID int64) *taskDraft {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drafts[userID]
}

func (b *Bot) setDraft(userID int64, d *taskDraft) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drafts[userID] = d
}

// clearDraft drops the user's draft and reports whether there was one.
func (b *Bot) clearDraft(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.drafts[userID]
	delete(b.drafts, userID)
	return ok
}

func (b *Bot) handleAdd(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.log.Info().Int64("telegram_id", msg.From.ID).Msg("start new task conversation")
	b.setDraft(msg.From.ID, &taskDraft{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what should it be called?", cancelKeyboard())
}

func (b *Bot) handleCancel(msg *tgbotapi.Message) error {
	if !b.clearDraft(msg.From.ID) {
		return b.sendText(msg.Chat.ID, "Nothing to cancel.")
	}
	return b.sendText(msg.Chat.ID, "Cancelled.")
}

func isSkip(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(labelSkip), "-", "no", "none":
		return true
	}
	return false
}

func (b *Bot) handleDraft(ctx context.Context, msg *tgbotapi.Message, d *taskDraft) error {
	text := strings.TrimSpace(msg.Text)
	if text == labelCancel {
		return b.handleCancel(msg)
	}
	b.log.Debug().Int64("telegram_id", msg.From.ID).Int("stage", int(d.stage)).Msg("conversation step")

	switch d.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty. What should it be called?", cancelKeyboard())
		}
		d.input.Title = text
		d.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Category? Send a label or press «Skip».", skipKeyboard())

	case stageCategory:
		if !isSkip(text) {
			d.input.Category = text
		}
		d.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 Should it repeat?", repeatKeyboard())

	case stageRepeat:
		if text == labelNoRepeat || isSkip(text) {
			d.stage = stageDue
			return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ Due date as <code>2024-11-30</code>, or «Skip».", skipKeyboard())
		}
		kind := model.PatternInterval
		if text != labelRepeatInterval {
			parsed, err := recurrence.ParseType(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the buttons.", repeatKeyboard())
			}
			kind = parsed
		}
		d.input.Recurrence = &service.RecurrenceInput{Type: string(kind)}
		if kind == model.PatternInterval {
			d.stage = stageInterval
			return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Every how many days? (1–365)", cancelKeyboard())
		}
		d.stage = stageEnd
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏁 Last date as <code>2024-12-31</code>, or «Skip» to repeat forever.", skipKeyboard())

	case stageInterval:
		days, err := strconv.Atoi(text)
		if err != nil || days < 1 || days > 365 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Send a number from 1 to 365.", cancelKeyboard())
		}
		d.input.Recurrence.IntervalDays = &days
		d.stage = stageEnd
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏁 Last date as <code>2024-12-31</code>, or «Skip» to repeat forever.", skipKeyboard())

	case stageEnd:
		if !isSkip(text) {
			end, err := calendar.Parse(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2024-12-31</code> or «Skip».", skipKeyboard())
			}
			d.input.Recurrence.EndDate = &end
		}
		return b.finishDraft(ctx, msg, d)

	case stageDue:
		if !isSkip(text) {
			due, err := calendar.Parse(text)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2024-11-30</code> or «Skip».", skipKeyboard())
			}
			d.input.DueDate = &due
		}
		return b.finishDraft(ctx, msg, d)
	}

	b.clearDraft(msg.From.ID)
	return b.sendText(msg.Chat.ID, "Conversation reset. Start again with /add.")
}

func (b *Bot) finishDraft(ctx context.Context, msg *tgbotapi.Message, d *taskDraft) error {
	b.clearDraft(msg.From.ID)
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	res, err := b.svc.Tasks.CreateTask(ctx, user.ID, d.input, b.now())
	switch {
	case errors.Is(err, service.ErrConflict):
		return b.sendText(msg.Chat.ID, "You already have a task with this title today.")
	case errors.Is(err, service.ErrInvalidInput):
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save the task: %s", html.EscapeString(err.Error())))
	case err != nil:
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}
	b.log.Info().Uint("user_id", user.ID).Bool("recurring", res.Pattern != nil).Msg("task created")
	return b.sendText(msg.Chat.ID, formatCreated(res))
}

func formatCreated(res service.CreateResult) string {
	var sb strings.Builder
	sb.WriteString("✅ <b>Task saved</b>\n")
	if t := res.Task; t != nil {
		sb.WriteString(fmt.Sprintf("• <b>ID:</b> %d\n", t.ID))
		sb.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", html.EscapeString(t.Title)))
		if t.Category != "" {
			sb.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", html.EscapeString(t.Category)))
		}
		if t.DueDate != nil {
			sb.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", calendar.Key(*t.DueDate)))
		}
	}
	if p := res.Pattern; p != nil {
		sb.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", html.EscapeString(p.Title)))
		if p.Category != "" {
			sb.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", html.EscapeString(p.Category)))
		}
		sb.WriteString(fmt.Sprintf("• <b>Repeats:</b> %s\n", repeatLabel(*p)))
		if p.EndDate != nil {
			sb.WriteString(fmt.Sprintf("• <b>Until:</b> %s\n", calendar.Key(*p.EndDate)))
		}
		if res.Batch != nil && res.Batch.Created > 0 {
			sb.WriteString(fmt.Sprintf("Added %d occurrence(s) so far. Check /today.\n", res.Batch.Created))
		}
	}
	return strings.TrimSpace(sb.String())
}

func repeatLabel(p model.RecurrencePattern) string {
	if p.Type == model.PatternInterval && p.IntervalDays != nil {
		return fmt.Sprintf("every %d days", *p.IntervalDays)
	}
	return string(p.Type)
}

const (
	cbDeletePrefix = "delete:"
	cbKeepPrefix   = "keep:"
)

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		return b.sendText(msg.Chat.ID, "Give me the task id: /delete 12")
	}
	taskID, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return b.sendText(msg.Chat.ID, "The task id must be a number.")
	}
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user.ID, uint(taskID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "Task not found.")
		}
		return err
	}

	text := fmt.Sprintf("Delete «%s» (#%d) on %s?", html.EscapeString(task.Title), task.ID, calendar.Key(task.Date))
	if task.IsRecurring {
		text += "\nOnly this occurrence goes; the series keeps repeating."
	}
	return b.sendWithInline(msg.Chat.ID, text, [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", fmt.Sprintf("%s%d", cbDeletePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Keep", fmt.Sprintf("%s%d", cbKeepPrefix, task.ID)),
		),
	})
}

func (b *Bot) deleteTask(ctx context.Context, chatID int64, from *tgbotapi.User, taskID uint) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user.ID, taskID)
	if err == nil {
		err = b.svc.Tasks.DeleteTask(ctx, user.ID, taskID)
	}
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(chatID, "Task not found or already deleted.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", html.EscapeString(err.Error())))
	}
	b.log.Info().Uint("task_id", taskID).Uint("user_id", user.ID).Msg("task deleted")
	return b.sendText(chatID, fmt.Sprintf("🗑 «%s» deleted.", html.EscapeString(task.Title)))
}
