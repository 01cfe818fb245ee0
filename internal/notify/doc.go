// Package notify publishes workflow completion signals to Redis
package notify
