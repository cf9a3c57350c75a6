// Package feed supplies the reference price used to place replenishment
// rungs. Sources: a fixed configured price, a polled venue ticker, or a
// streaming websocket ticker. Every source answers the same question with
// Price(): the latest price and whether it is fresh enough to use.
package feed
