// Package middleware provides HTTP middleware for the cloudpilot API server.
package middleware
