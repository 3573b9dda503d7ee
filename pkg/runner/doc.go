/*
Package runner executes batches of tasks against a search engine.

Each task gets an independent search on a bounded worker pool. A failing task yields a
failed result and never stops the batch; only cancelling the context does. Results can
be persisted to a ports.ResultStore, and a ports.DistributedLocker lets several
processes share one dataset without solving a task twice.

# Usage

	r := runner.New(engine,
		runner.WithWorkers(8),
		runner.WithStore(store),
		runner.WithRateLimit(5, 1),
	)

	batch, err := r.Run(ctx, tasks)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("EM: %.3f\n", batch.Summary().EM())
*/
package runner
