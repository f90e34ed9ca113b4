// Package process starts engine subprocesses in their own process group and
// stops them: an interrupt first, then a group-wide kill.
package process
