// Package telegram is a thin wrapper over the bot API: outgoing messages,
// typing actions and the inbound update stream.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	bot *tgbotapi.BotAPI
}

func New(token string) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Client{bot: bot}, nil
}

// SendMessage sends text to the chat, optionally replying to a message.
// HTML parse mode matches the markup used in the /start help text.
func (c *Client) SendMessage(chatID int64, replyToMessageID int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if replyToMessageID != 0 {
		msg.ReplyToMessageID = replyToMessageID
	}
	_, err := c.bot.Send(msg)
	return err
}

func (c *Client) SendTyping(chatID int64) error {
	_, err := c.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}

// Updates returns the long-poll update channel.
func (c *Client) Updates(timeout int) tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeout
	return c.bot.GetUpdatesChan(cfg)
}
