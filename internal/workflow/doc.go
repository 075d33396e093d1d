// Package workflow runs the background loop that drains the ingest
// queue. Jobs are processed strictly one at a time in creation order;
// after a job finishes the loop immediately looks for the next queued
// job before falling back to its poll interval.
package workflow
