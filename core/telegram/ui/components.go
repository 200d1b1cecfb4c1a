package ui

import tele "gopkg.in/telebot.v4"

// NewArticleResult creates an inline query article that posts Markdown text when chosen.
func NewArticleResult(id, title, description, text string) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       title,
		Description: description,
		Text:        text,
	}
	result.Content = &tele.InputTextMessageContent{Text: text, ParseMode: tele.ModeMarkdownV2}
	result.SetResultID(id)
	return result
}

// InlineAnswer wraps results into a private, short-lived query response.
func InlineAnswer(results []tele.Result, cacheSeconds int) *tele.QueryResponse {
	if results == nil {
		results = tele.Results{}
	}
	return &tele.QueryResponse{
		Results:    results,
		CacheTime:  cacheSeconds,
		IsPersonal: true,
	}
}
