// Package domain contains the core entities of the coaching application:
// generation tasks, topics, lessons, books and chapters, conversations and
// per-user progress. It holds the state rules for these entities and stays
// independent of storage, transport and the generation provider.
package domain
