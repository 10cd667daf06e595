package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/houstonsbarros/hominsaude/internal/client/models"
	"github.com/houstonsbarros/hominsaude/internal/client/services"
)

// aiFooter is printed under assistant replies.
const aiFooter = "Touch is an AI assistant and may make mistakes. Consider checking important information."

// Say sends a chat message to the assistant and prints the reply. When the
// user is not signed in, the social sign-in flow is started instead and the
// message is not delivered.
func (a *App) Say(ctx context.Context, text string) error {
	err := a.chatService.Send(ctx, text)
	switch {
	case err == nil:
		a.printLastReply()
		return nil
	case errors.Is(err, services.ErrNotAuthenticated):
		printlnFn("You need to sign in to chat.")
		return a.Social(ctx)
	case errors.Is(err, services.ErrBusy):
		printlnFn("Still waiting for the previous reply, try again in a moment.")
		return err
	default:
		printlnFn("Error:", err.Error())
		return err
	}
}

// List refreshes and prints the conversation list, newest first.
func (a *App) List(ctx context.Context) error {
	if err := a.chatService.RefreshConversations(ctx); err != nil {
		if errors.Is(err, services.ErrNotAuthenticated) {
			printlnFn("Sign in first (/login or /social).")
		} else {
			printlnFn("Error:", err.Error())
		}
		return err
	}

	convs := a.chatService.Conversations()
	if len(convs) == 0 {
		printlnFn("No conversations yet. Just type a message to start one.")
		return nil
	}

	for _, conv := range convs {
		line := conv.DisplayID() + "  " + conv.Title
		if !conv.LastActivity.IsZero() {
			line += "  (" + conv.LastActivity.Format("2006-01-02 15:04") + ")"
		}
		printlnFn(line)
	}
	return nil
}

// OpenConversation loads a conversation's history and prints the transcript.
func (a *App) OpenConversation(ctx context.Context, id string) error {
	if err := a.chatService.Open(ctx, id); err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownConversation):
			printlnFn("No conversation with id", id, "- run /list to see them.")
		case errors.Is(err, services.ErrBusy):
			printlnFn("Still waiting for the previous reply, try again in a moment.")
		default:
			printlnFn("Error:", err.Error())
		}
		return err
	}

	for _, msg := range a.chatService.Messages() {
		a.printMessage(msg)
	}
	return nil
}

// NewChat starts a fresh conversation and prints its welcome message.
func (a *App) NewChat(ctx context.Context) error {
	a.chatService.NewChat()
	for _, msg := range a.chatService.Messages() {
		a.printMessage(msg)
	}
	return nil
}

// Delete removes a conversation after an explicit confirmation.
func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.chatService.RequestDelete(id); err != nil {
		printlnFn("No saved conversation with id", id, "- unsaved chats disappear with /new.")
		return err
	}

	pending, _ := a.chatService.PendingDelete()
	wasActive := a.chatService.ActiveConversationID() == pending.DisplayID()

	answer, err := getSimpleText(a.reader, "Delete conversation "+pending.DisplayID()+"? This cannot be undone. (y/N)", os.Stdout)
	if err != nil {
		a.chatService.CancelDelete()
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		a.chatService.CancelDelete()
		printlnFn("Kept.")
		return nil
	}

	if err := a.chatService.ConfirmDelete(ctx); err != nil {
		printlnFn("Error:", err.Error())
		return err
	}
	printlnFn("Deleted.")

	if wasActive {
		return a.NewChat(ctx)
	}
	return nil
}

// printLastReply prints the newest assistant message of the active
// conversation, rendered as Markdown.
func (a *App) printLastReply() {
	msgs := a.chatService.Messages()
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Sender != models.SenderAssistant {
		return
	}
	a.printMessage(last)
	printlnFn(aiFooter)
}

func (a *App) printMessage(msg models.Message) {
	switch msg.Sender {
	case models.SenderUser:
		printlnFn("you> " + msg.Text)
	default:
		if msg.Source != "" {
			printlnFn("[" + msg.Source + "]")
		}
		printlnFn(renderMarkdown(a.renderer, msg.Text))
	}
}
