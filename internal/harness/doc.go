// Package harness runs register scenarios end to end.
//
// A scenario drives the real cart, checkout, queue, connectivity monitor and
// sync engine against an in-memory remote, step by step, and records what
// each step did: its outcome and every remote call it caused.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	locale: en
//	tax_percentage: "10"
//	stock:
//	  - { product_id: kopi, quantity: 10 }
//	steps:
//	  - add: { product_id: kopi, name: Kopi, price: "13000", stock: 10, quantity: 2 }
//	  - network: offline
//	  - checkout: { actor: cashier-1, payment: cash }
//	    expect: { offline: true, id: offline_1714554000000_42 }
//	  - network: online
//	assertions:
//	  - { type: pending_count, count: 0 }
//	  - { type: stock, product_id: kopi, quantity: 8 }
//
// Each step sets exactly one action: add, update, remove, discount,
// customer, checkout, network, sync or fail. An expect clause checks the
// step's result; expect.error names the error the step must fail with.
//
// # Assertion Types
//
//   - pending_count: number of sales left in the local queue
//   - remote_count: number of remote records of a kind
//   - stock: remote stock quantity of a product
//   - toasts: toast titles that must appear, in order
//   - call_order: remote calls that must appear, in order
//   - cart: number of lines and total left in the cart
//
// # Deterministic Testing
//
// Every scenario runs with a frozen clock at testutil.Epoch, a fixed
// sequence for the offline id suffix, sequential remote ids and a fresh
// queue file. Reconnects wait for the sync pass they start. The same
// scenario therefore produces a byte-identical trace on every run, which is
// compared against testdata/golden with goldie.
package harness
