// Package gemini implements generation.Generator on Google's Gemini API.
//
// A Client holds two model profiles: a voice profile for short, low-latency
// chat replies and a content profile for JSON-mode structured generation.
// Structured responses go through the repair package, so every call yields a
// well-typed result. Chat calls degrade to a fixed apology on failure.
//
// Factory builds a Client per job from the current AI settings, so API key
// and model changes take effect without a restart.
package gemini
