/*
Engine wires the trading loop.

# Module
  - event queue: single bounded queue fed by the price stream and broker callbacks
  - dispatcher: single-threaded event loop routing by event type
  - strategy seam: ticks in, signals/orders out
  - execution: order submission off the dispatcher path, fills reconciled back onto the queue
  - fill book: in-memory position bookkeeping

# Source
 1. ticks from the streaming price feed
 2. fills from the execution reconciler

# Produce
  - orders to the configured brokerage adapter
*/
package engine
