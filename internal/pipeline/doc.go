// Package pipeline runs file jobs through a sequence of steps and processes
// many jobs concurrently.
//
// A Pipeline executes its Steps in order on one model.FileJob. A
// BatchProcessor builds a fresh Pipeline per job and runs jobs in parallel
// with errgroup, recording failures on the job instead of aborting the batch.
package pipeline
