// Package voices lists the voices and locales a MARY server offers,
// grouped by locale, so operators can pick values for VOICE and LOCALE.
package voices
