// Package translation suggests translations for unfinished catalog
// messages using the OpenAI or Gemini APIs. Suggestions are never marked
// finished; a translator reviews them in Qt Linguist.
package translation
