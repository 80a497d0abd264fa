// Package tgui renders the bot's Telegram surface: inline keyboards for
// menu navigation and an HTML message builder that escapes by default, so
// handler code can't accidentally leak user text into markup.
package tgui
