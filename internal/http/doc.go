// Package httpapp provides the HTTP server for the Inkwell blog API.
//
//	@title						Inkwell Blog API
//	@version					1.0
//	@description				Blog platform backend: posts with embedded likes and comments,
//	@description				delegated authentication, AI-assisted drafting, and text-to-speech.
//	@description
//	@description				## Authentication
//	@description
//	@description				Sign-in and sign-up are delegated to an external identity provider.
//	@description				`POST /api/auth/login` verifies credentials there and returns a signed
//	@description				session token (3 hour expiry). Pass it on every protected request:
//	@description
//	@description				```
//	@description				Authorization: Bearer TOKEN
//	@description				```
//	@description
//	@description				Public reads (`/api/blog/all`, `/api/blog/{postId}`,
//	@description				`/api/blog/user/{userId}`, `/api/TextReader/read/{postId}`) need no token.
//
//	@contact.name				Inkwell
//	@license.name				MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token from /api/auth/login
//
//	@tag.name					Auth
//	@tag.description			Login, registration, and password reset, all delegated to the identity provider.
//
//	@tag.name					Blog
//	@tag.description			Posts with embedded likes and comments. One like per user per post.
//
//	@tag.name					AI
//	@tag.description			AI-assisted content drafting from a title.
//
//	@tag.name					TextReader
//	@tag.description			Text-to-speech rendering of post content as WAV audio.
package httpapp
