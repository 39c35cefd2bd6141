// Package llm defines the narrow boundary to the external text-generation
// collaborator. The decision engine depends only on the Provider interface;
// concrete HTTP providers live outside this library.
package llm
