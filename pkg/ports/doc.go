/*
Package ports defines the driven-side interfaces of the Strata core.

The engine, simulator and compiler never touch storage or audio output
directly; they speak to these interfaces, and adapters (memory, redis, file,
a host's mixer) plug in behind them.
*/
package ports
